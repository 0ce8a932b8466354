package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/taskboard/internal/domain"
)

func strPtr(s string) *string { return &s }

func sampleDetails() domain.TicketDetails {
	due := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	return domain.TicketDetails{
		Ticket:   domain.Ticket{ID: "t1", Name: "Fix login", DueDate: &due},
		Project:  domain.Project{ID: "p1", Name: "Alpha", ChatID: strPtr("-100")},
		Status:   domain.TicketStatus{ID: "s1", Name: "In Progress"},
		Creator:  domain.User{ID: "u1", Name: "Ann"},
		Epic:     &domain.Epic{ID: "e1", Name: "Auth"},
		Priority: &domain.TicketPriority{ID: "pr1", Name: "High"},
		Assignees: []domain.User{
			{ID: "u2", Name: "Bob"},
			{ID: "u3", Name: "Cid"},
		},
	}
}

func TestComposeIncludesAllFields(t *testing.T) {
	msgs := NewComposer().Compose(Event{Kind: KindCreated, Details: sampleDetails()})

	for _, want := range []string{"Fix login", "Alpha", "Ann", "In Progress", "Auth", "09.03.2024", "High", "Bob, Cid"} {
		assert.Contains(t, msgs.Channel, want)
	}
	assert.True(t, strings.HasPrefix(msgs.Channel, channelHeadlines[KindCreated]))
	assert.True(t, strings.HasPrefix(msgs.Assignee, assigneeHeadlines[KindCreated]))
	assert.NotContains(t, msgs.Assignee, "Bob, Cid")
}

func TestComposePlaceholders(t *testing.T) {
	d := sampleDetails()
	d.Epic = nil
	d.Priority = nil
	d.Ticket.DueDate = nil
	d.Assignees = nil

	msgs := NewComposer().Compose(Event{Kind: KindStatusChanged, Details: d})

	assert.Contains(t, msgs.Channel, "🔖 Epic: "+Unspecified+"\n")
	assert.Contains(t, msgs.Channel, "⏰ Due: "+Unspecified+"\n")
	assert.Contains(t, msgs.Channel, "‼️ Priority: "+Unspecified+"\n")
	assert.Contains(t, msgs.Channel, "👥 Assignees: "+Unassigned+"\n")
	assert.Contains(t, msgs.Assignee, "🔖 Epic: "+Unspecified+"\n")
	assert.NotContains(t, msgs.Channel, ": \n")
}

func TestComposeEscapesHTML(t *testing.T) {
	d := sampleDetails()
	d.Ticket.Name = "<b>boom</b> & co"

	msgs := NewComposer().Compose(Event{Kind: KindUpdated, Details: d})

	assert.Contains(t, msgs.Channel, "&lt;b&gt;boom&lt;/b&gt; &amp; co")
	assert.NotContains(t, msgs.Channel, "<b>")
}

func TestComposeHeadlinesDifferByKind(t *testing.T) {
	c := NewComposer()
	created := c.Compose(Event{Kind: KindCreated, Details: sampleDetails()})
	updated := c.Compose(Event{Kind: KindUpdated, Details: sampleDetails()})
	moved := c.Compose(Event{Kind: KindStatusChanged, Details: sampleDetails()})

	assert.NotEqual(t, created.Channel, updated.Channel)
	assert.NotEqual(t, updated.Channel, moved.Channel)
}
