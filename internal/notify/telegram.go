package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/taskboard/internal/config"
)

// MaxMessageLength is the Telegram sendMessage text limit in characters.
const MaxMessageLength = 4096

// Ack reports the outcome of a single dispatch.
type Ack struct {
	Skipped   bool
	MessageID int64
}

// DeliveryError is returned when the endpoint rejects or fails a send.
type DeliveryError struct {
	ChatID     string
	StatusCode int
	Reason     string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deliver to %s: %v", e.ChatID, e.Err)
	}
	return fmt.Sprintf("deliver to %s: status %d: %s", e.ChatID, e.StatusCode, e.Reason)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Sender delivers one text to one destination.
type Sender interface {
	Dispatch(ctx context.Context, addr ChatAddress, text string) (Ack, error)
}

// TelegramClient talks to the Bot API sendMessage method.
type TelegramClient struct {
	baseURL             string
	token               string
	disableNotification bool
	httpClient          *http.Client
	logger              *zap.Logger
}

// NewTelegramClient builds a client from injected configuration.
func NewTelegramClient(cfg config.TelegramConfig, logger *zap.Logger) *TelegramClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramClient{
		baseURL:             strings.TrimRight(cfg.APIBaseURL, "/"),
		token:               cfg.BotToken,
		disableNotification: cfg.DisableNotification,
		httpClient:          &http.Client{Timeout: timeout},
		logger:              logger,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	DisableNotification   bool   `json:"disable_notification"`
	MessageThreadID       *int64 `json:"message_thread_id,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Dispatch sends text to addr. An empty chat id is a no-op and text longer
// than MaxMessageLength is truncated.
func (c *TelegramClient) Dispatch(ctx context.Context, addr ChatAddress, text string) (Ack, error) {
	if addr.ChatID == "" {
		return Ack{Skipped: true}, nil
	}

	payload := sendMessageRequest{
		ChatID:                addr.ChatID,
		Text:                  Truncate(text, MaxMessageLength),
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		DisableNotification:   c.disableNotification,
	}
	if addr.ThreadID != "" {
		threadID, err := strconv.ParseInt(addr.ThreadID, 10, 64)
		if err != nil {
			c.logger.Warn("ignoring malformed thread id", zap.String("chat_id", addr.ChatID), zap.String("thread_id", addr.ThreadID))
		} else {
			payload.MessageThreadID = &threadID
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Ack{}, &DeliveryError{ChatID: addr.ChatID, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return Ack{}, &DeliveryError{ChatID: addr.ChatID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ack{}, &DeliveryError{ChatID: addr.ChatID, Err: redactToken(err, c.token)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed sendMessageResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !parsed.OK {
		reason := parsed.Description
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return Ack{}, &DeliveryError{ChatID: addr.ChatID, StatusCode: resp.StatusCode, Reason: reason}
	}
	return Ack{MessageID: parsed.Result.MessageID}, nil
}

// Truncate cuts s to at most limit runes. A cut that would leave a partial
// HTML entity such as "&am" drops the whole entity instead, since Telegram
// rejects the message otherwise.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return trimPartialEntity(s[:i], s)
		}
		count++
	}
	return s
}

// maxEntityLen bounds the bytes after '&' up to and including ';'.
const maxEntityLen = 8

func trimPartialEntity(cut, full string) string {
	amp := strings.LastIndexByte(cut, '&')
	if amp < 0 || strings.IndexByte(cut[amp:], ';') >= 0 {
		return cut
	}
	if isEntity(full[amp:]) {
		return cut[:amp]
	}
	return cut
}

func isEntity(s string) bool {
	for i := 1; i < len(s) && i <= maxEntityLen; i++ {
		switch c := s[i]; {
		case c == ';':
			return i > 1
		case c == '#', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return false
}

// redactToken keeps the bot token out of logged transport errors, which
// embed the request URL.
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<redacted>"))
}
