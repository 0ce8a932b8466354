package notify

import (
	"html"
	"strings"

	"github.com/spec-kit/taskboard/internal/domain"
)

// Placeholders rendered for absent optional values.
const (
	Unspecified = "unspecified"
	Unassigned  = "unassigned"
)

// DueDateLayout renders due dates as day.month.year.
const DueDateLayout = "02.01.2006"

// Event is the input to Compose: a committed ticket snapshot and what happened to it.
type Event struct {
	Kind    Kind
	Details domain.TicketDetails
	Actor   *domain.User
}

var channelHeadlines = map[Kind]string{
	KindCreated:       "🆕 New ticket created: ",
	KindUpdated:       "🔧 Ticket updated: ",
	KindStatusChanged: "🔧 Ticket status updated: ",
}

var assigneeHeadlines = map[Kind]string{
	KindCreated:       "🆕 You have been assigned a new ticket: ",
	KindUpdated:       "🔧 Your ticket was updated: ",
	KindStatusChanged: "🔧 Your ticket changed status: ",
}

// Composer renders ticket events into message text. Values are HTML-escaped
// since messages are sent with parse_mode=HTML.
type Composer struct{}

// NewComposer returns a Composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose renders both audience variants. It never fails: absent optional
// relations render as placeholders.
func (c *Composer) Compose(event Event) Messages {
	d := event.Details

	var body strings.Builder
	line(&body, "🆔 Project: ", d.Project.Name)
	line(&body, "👨‍💼 Creator: ", d.Creator.Name)
	line(&body, "❕ Status: ", d.Status.Name)
	line(&body, "🔖 Epic: ", epicName(d.Epic))
	line(&body, "⏰ Due: ", dueDate(d))
	line(&body, "‼️ Priority: ", priorityName(d.Priority))

	var channel strings.Builder
	line(&channel, headline(channelHeadlines, event.Kind), d.Ticket.Name)
	channel.WriteString(body.String())
	line(&channel, "👥 Assignees: ", assigneeNames(d.Assignees))

	var assignee strings.Builder
	line(&assignee, headline(assigneeHeadlines, event.Kind), d.Ticket.Name)
	assignee.WriteString(body.String())

	return Messages{Channel: channel.String(), Assignee: assignee.String()}
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(html.EscapeString(value))
	b.WriteByte('\n')
}

func headline(table map[Kind]string, kind Kind) string {
	if h, ok := table[kind]; ok {
		return h
	}
	return table[KindUpdated]
}

func epicName(epic *domain.Epic) string {
	if epic == nil || epic.Name == "" {
		return Unspecified
	}
	return epic.Name
}

func priorityName(priority *domain.TicketPriority) string {
	if priority == nil || priority.Name == "" {
		return Unspecified
	}
	return priority.Name
}

func dueDate(d domain.TicketDetails) string {
	if d.Ticket.DueDate == nil {
		return Unspecified
	}
	return d.Ticket.DueDate.Format(DueDateLayout)
}

func assigneeNames(users []domain.User) string {
	if len(users) == 0 {
		return Unassigned
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return strings.Join(names, ", ")
}
