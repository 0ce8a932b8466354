package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/repository"
)

// fakeStore is an in-memory stand-in for postgres. Mutations are applied to
// a copy and committed only on success, like a transaction.
type fakeStore struct {
	mu         sync.Mutex
	seq        int
	users      map[string]domain.User
	projects   map[string]domain.Project
	statuses   map[string]domain.TicketStatus
	epics      map[string]domain.Epic
	priorities map[string]domain.TicketPriority
	tickets    map[string]domain.Ticket
	history    []domain.TicketHistory
	comments   map[string]domain.TicketComment
	failWrite  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[string]domain.User{},
		projects:   map[string]domain.Project{},
		statuses:   map[string]domain.TicketStatus{},
		epics:      map[string]domain.Epic{},
		priorities: map[string]domain.TicketPriority{},
		tickets:    map[string]domain.Ticket{},
		comments:   map[string]domain.TicketComment{},
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) historyFor(ticketID string) []domain.TicketHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.TicketHistory{}
	for _, h := range s.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out
}

func (s *fakeStore) ticket(id string) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTicket(s.tickets[id])
}

// checkID rejects ids postgres could not cast to uuid, the way a uuid
// column reports invalid_text_representation.
func checkID(id string) error {
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return &pgconn.PgError{Code: "22P02", Message: fmt.Sprintf("invalid input syntax for type uuid: %q", id)}
		}
	}
	return nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.AssigneeIDs = slices.Clone(t.AssigneeIDs)
	return t
}

type fakeTickets struct{ *fakeStore }

func (f fakeTickets) Create(_ context.Context, ticket *domain.Ticket, actorID string) (*domain.TicketHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return nil, f.failWrite
	}
	if st, ok := f.statuses[ticket.StatusID]; !ok || st.ProjectID != ticket.ProjectID {
		return nil, repository.ErrStatusNotInProject
	}
	ticket.ID = f.nextID("ticket")
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	if ticket.AssigneeIDs == nil {
		ticket.AssigneeIDs = []string{}
	}
	f.tickets[ticket.ID] = cloneTicket(*ticket)
	h := domain.TicketHistory{ID: f.nextID("history"), TicketID: ticket.ID, UserID: actorID, TicketStatusID: ticket.StatusID, CreatedAt: time.Now()}
	f.history = append(f.history, h)
	return &h, nil
}

func (f fakeTickets) Mutate(_ context.Context, ticketID, actorID string, fn repository.TicketMutator) (*domain.Ticket, *domain.TicketHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(ticketID); err != nil {
		return nil, nil, err
	}
	stored, ok := f.tickets[ticketID]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	working := cloneTicket(stored)
	record, err := fn(&working)
	if err != nil {
		return nil, nil, err
	}
	working.ID, working.ProjectID, working.CreatedBy = stored.ID, stored.ProjectID, stored.CreatedBy
	if st, ok := f.statuses[working.StatusID]; !ok || st.ProjectID != working.ProjectID {
		return nil, nil, repository.ErrStatusNotInProject
	}
	if f.failWrite != nil {
		return nil, nil, f.failWrite
	}
	working.UpdatedAt = time.Now()
	f.tickets[ticketID] = cloneTicket(working)

	var history *domain.TicketHistory
	if record {
		h := domain.TicketHistory{ID: f.nextID("history"), TicketID: ticketID, UserID: actorID, TicketStatusID: working.StatusID, CreatedAt: time.Now()}
		f.history = append(f.history, h)
		history = &h
	}
	return &working, history, nil
}

func (f fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(id); err != nil {
		return nil, err
	}
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := cloneTicket(t)
	return &c, nil
}

func (f fakeTickets) GetDetails(ctx context.Context, id string) (*domain.TicketDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(id); err != nil {
		return nil, err
	}
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	d := &domain.TicketDetails{
		Ticket:    cloneTicket(t),
		Project:   f.projects[t.ProjectID],
		Status:    f.statuses[t.StatusID],
		Creator:   f.users[t.CreatedBy],
		Assignees: []domain.User{},
	}
	if t.EpicID != nil {
		e := f.epics[*t.EpicID]
		d.Epic = &e
	}
	if t.PriorityID != nil {
		p := f.priorities[*t.PriorityID]
		d.Priority = &p
	}
	for _, uid := range t.AssigneeIDs {
		d.Assignees = append(d.Assignees, f.users[uid])
	}
	return d, nil
}

func (f fakeTickets) ListByProject(_ context.Context, projectID string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Ticket{}
	for _, t := range f.tickets {
		if t.ProjectID == projectID {
			out = append(out, cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeProjects struct{ *fakeStore }

func (f fakeProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(id); err != nil {
		return nil, err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p.Members = slices.Clone(p.Members)
	return &p, nil
}

func (f fakeProjects) ListMemberIDs(_ context.Context, projectID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(projectID); err != nil {
		return nil, err
	}
	p, ok := f.projects[projectID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return slices.Clone(p.Members), nil
}

func (f fakeProjects) ListStatuses(_ context.Context, projectID string) ([]domain.TicketStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.TicketStatus{}
	for _, st := range f.statuses {
		if st.ProjectID == projectID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f fakeProjects) GetStatus(_ context.Context, id string) (*domain.TicketStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(id); err != nil {
		return nil, err
	}
	st, ok := f.statuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &st, nil
}

func (f fakeProjects) CreateStatus(_ context.Context, status *domain.TicketStatus, appendLast bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if appendLast {
		next := 0
		for _, st := range f.statuses {
			if st.ProjectID == status.ProjectID && st.SortOrder >= next {
				next = st.SortOrder + 1
			}
		}
		status.SortOrder = next
	}
	status.ID = f.nextID("status")
	f.statuses[status.ID] = *status
	return nil
}

func (f fakeProjects) GetEpic(_ context.Context, id string) (*domain.Epic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(id); err != nil {
		return nil, err
	}
	e, ok := f.epics[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (f fakeProjects) GetPriority(_ context.Context, id string) (*domain.TicketPriority, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(id); err != nil {
		return nil, err
	}
	p, ok := f.priorities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

type fakeHistory struct{ *fakeStore }

func (f fakeHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	return f.historyFor(ticketID), nil
}

type fakeComments struct{ *fakeStore }

func (f fakeComments) Create(_ context.Context, c *domain.TicketComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.nextID("comment")
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.comments[c.ID] = *c
	return nil
}

func (f fakeComments) Update(_ context.Context, c *domain.TicketComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	f.comments[c.ID] = *c
	return nil
}

func (f fakeComments) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.comments, id)
	return nil
}

func (f fakeComments) GetByID(_ context.Context, id string) (*domain.TicketComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkID(id); err != nil {
		return nil, err
	}
	c, ok := f.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (f fakeComments) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.TicketComment{}
	for _, c := range f.comments {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeStats struct {
	gotScope *string
}

func (f *fakeStats) Overview(_ context.Context, _ string, scope *string, _ time.Time) (*domain.Stats, error) {
	f.gotScope = scope
	return &domain.Stats{Tickets: 3}, nil
}

func strPtr(s string) *string { return &s }

// fixture seeds two projects. Alpha: statuses Backlog(0) and Done(1),
// members Alice and Carol. Beta: status Open(0), member Bob.
type fixture struct {
	store *fakeStore
	alice *domain.User
	bob   *domain.User
	carol *domain.User
	root  *domain.User
}

func newFixture() *fixture {
	s := newFakeStore()
	users := []domain.User{
		{ID: "alice", Name: "Alice", ChatID: strPtr("chat-alice")},
		{ID: "bob", Name: "Bob", ChatID: strPtr("chat-bob")},
		{ID: "carol", Name: "Carol"},
		{ID: "root", Name: "Root", Roles: []domain.Role{domain.RoleSuperAdmin}},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	s.projects["alpha"] = domain.Project{ID: "alpha", Name: "Alpha", ChatID: strPtr("chat-alpha"), ThreadID: strPtr("12"), Members: []string{"alice", "carol"}}
	s.projects["beta"] = domain.Project{ID: "beta", Name: "Beta", Members: []string{"bob"}}
	s.statuses["backlog"] = domain.TicketStatus{ID: "backlog", ProjectID: "alpha", Name: "Backlog", SortOrder: 0}
	s.statuses["done"] = domain.TicketStatus{ID: "done", ProjectID: "alpha", Name: "Done", SortOrder: 1}
	s.statuses["open"] = domain.TicketStatus{ID: "open", ProjectID: "beta", Name: "Open", SortOrder: 0}
	s.epics["auth"] = domain.Epic{ID: "auth", ProjectID: "alpha", Name: "Auth"}
	s.epics["beta-epic"] = domain.Epic{ID: "beta-epic", ProjectID: "beta", Name: "Other"}
	s.priorities["high"] = domain.TicketPriority{ID: "high", Name: "High"}

	user := func(id string) *domain.User {
		u := s.users[id]
		return &u
	}
	return &fixture{store: s, alice: user("alice"), bob: user("bob"), carol: user("carol"), root: user("root")}
}

type fakeUsers struct{ *fakeStore }

func (f fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID("user")
	f.users[user.ID] = *user
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}
