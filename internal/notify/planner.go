package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/taskboard/internal/domain"
)

// Plan expands composed messages into one job per destination: the project
// channel when it has a chat id, then every assignee with a chat id.
// Duplicate destinations are collapsed.
func Plan(kind Kind, details domain.TicketDetails, msgs Messages, now time.Time) []Job {
	jobs := make([]Job, 0, len(details.Assignees)+1)
	seen := make(map[ChatAddress]struct{})

	add := func(audience Audience, addr ChatAddress, text string) {
		if addr.ChatID == "" {
			return
		}
		if _, dup := seen[addr]; dup {
			return
		}
		seen[addr] = struct{}{}
		jobs = append(jobs, Job{
			ID:         uuid.NewString(),
			TicketID:   details.Ticket.ID,
			Kind:       kind,
			Audience:   audience,
			Chat:       addr,
			Text:       text,
			EnqueuedAt: now,
		})
	}

	add(AudienceChannel, ChatAddress{
		ChatID:   value(details.Project.ChatID),
		ThreadID: value(details.Project.ThreadID),
	}, msgs.Channel)

	for _, user := range details.Assignees {
		add(AudienceAssignee, ChatAddress{ChatID: value(user.ChatID)}, msgs.Assignee)
	}
	return jobs
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
