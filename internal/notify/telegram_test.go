package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/taskboard/internal/config"
)

type capturedRequest struct {
	Path string
	Body map[string]any
}

func newTelegramServer(t *testing.T, status int, reply string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		captured = append(captured, capturedRequest{Path: r.URL.Path, Body: body})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func newClient(baseURL string) *TelegramClient {
	return NewTelegramClient(config.TelegramConfig{
		APIBaseURL:          baseURL,
		BotToken:            "123:abc",
		DisableNotification: true,
	}, zap.NewNop())
}

func TestDispatchSendsMessage(t *testing.T) {
	srv, captured := newTelegramServer(t, http.StatusOK, `{"ok":true,"result":{"message_id":77}}`)

	ack, err := newClient(srv.URL).Dispatch(context.Background(), ChatAddress{ChatID: "-100", ThreadID: "5"}, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(77), ack.MessageID)
	assert.False(t, ack.Skipped)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, "/bot123:abc/sendMessage", req.Path)
	assert.Equal(t, "-100", req.Body["chat_id"])
	assert.Equal(t, "hello", req.Body["text"])
	assert.Equal(t, "HTML", req.Body["parse_mode"])
	assert.Equal(t, true, req.Body["disable_web_page_preview"])
	assert.Equal(t, true, req.Body["disable_notification"])
	assert.Equal(t, float64(5), req.Body["message_thread_id"])
}

func TestDispatchOmitsThreadWhenAbsent(t *testing.T) {
	srv, captured := newTelegramServer(t, http.StatusOK, `{"ok":true,"result":{"message_id":1}}`)

	_, err := newClient(srv.URL).Dispatch(context.Background(), ChatAddress{ChatID: "9"}, "hi")
	require.NoError(t, err)
	_, present := (*captured)[0].Body["message_thread_id"]
	assert.False(t, present)
}

func TestDispatchTruncatesLongText(t *testing.T) {
	srv, captured := newTelegramServer(t, http.StatusOK, `{"ok":true,"result":{"message_id":1}}`)

	long := strings.Repeat("я", MaxMessageLength+500)
	_, err := newClient(srv.URL).Dispatch(context.Background(), ChatAddress{ChatID: "9"}, long)
	require.NoError(t, err)

	sent := (*captured)[0].Body["text"].(string)
	assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(sent))
	assert.True(t, utf8.ValidString(sent))
}

func TestDispatchSkipsEmptyChat(t *testing.T) {
	srv, captured := newTelegramServer(t, http.StatusOK, `{"ok":true}`)

	ack, err := newClient(srv.URL).Dispatch(context.Background(), ChatAddress{}, "hello")
	require.NoError(t, err)
	assert.True(t, ack.Skipped)
	assert.Empty(t, *captured)
}

func TestDispatchReportsRejection(t *testing.T) {
	cases := []struct {
		name   string
		status int
		reply  string
		reason string
	}{
		{"http error", http.StatusBadRequest, `{"ok":false,"description":"Bad Request: chat not found"}`, "chat not found"},
		{"ok false", http.StatusOK, `{"ok":false,"description":"Forbidden: bot was blocked"}`, "bot was blocked"},
		{"no body", http.StatusBadGateway, ``, "Bad Gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTelegramServer(t, tc.status, tc.reply)

			_, err := newClient(srv.URL).Dispatch(context.Background(), ChatAddress{ChatID: "9"}, "hi")

			var deliveryErr *DeliveryError
			require.True(t, errors.As(err, &deliveryErr))
			assert.Equal(t, tc.status, deliveryErr.StatusCode)
			assert.Contains(t, deliveryErr.Error(), tc.reason)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "мир", Truncate("мир!", 3))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestTruncateKeepsEntitiesWhole(t *testing.T) {
	assert.Equal(t, "ab", Truncate("ab&amp;cd", 4))
	assert.Equal(t, "&amp;", Truncate("&amp;&amp;", 7))
	assert.Equal(t, "x", Truncate("x&quot;y", 5))
	assert.Equal(t, "x&#39;", Truncate("x&#39;y", 6))
	assert.Equal(t, "&lt;", Truncate("&lt;", 4))
	assert.Equal(t, "a & b", Truncate("a & b c", 5))
}

func TestTruncateComposedAmpersandName(t *testing.T) {
	for n := 1020; n < 1030; n++ {
		d := sampleDetails()
		d.Ticket.Name = strings.Repeat("&", n)
		msgs := NewComposer().Compose(Event{Kind: KindCreated, Details: d})

		for _, text := range []string{msgs.Channel, msgs.Assignee} {
			cut := Truncate(text, MaxMessageLength)
			assert.LessOrEqual(t, utf8.RuneCountInString(cut), MaxMessageLength)
			assert.True(t, strings.HasPrefix(text, cut))
			if amp := strings.LastIndexByte(cut, '&'); amp >= 0 {
				assert.Contains(t, cut[amp:], ";", "n=%d ends with %q", n, cut[max(0, len(cut)-8):])
			}
		}
	}
}
