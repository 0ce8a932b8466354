package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/taskboard/internal/domain"
)

func TestAuthorityCanAct(t *testing.T) {
	authority := NewAuthority()
	ticket := &domain.Ticket{ID: "t1", CreatedBy: "creator", AssigneeIDs: []string{"alice"}}

	cases := []struct {
		name string
		user *domain.User
		want bool
	}{
		{"super admin", &domain.User{ID: "root", Roles: []domain.Role{domain.RoleSuperAdmin}}, true},
		{"creator", &domain.User{ID: "creator"}, true},
		{"assignee", &domain.User{ID: "alice"}, true},
		{"stranger", &domain.User{ID: "bob"}, false},
		{"other role", &domain.User{ID: "carol", Roles: []domain.Role{"panel_user"}}, false},
		{"nil user", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, authority.CanAct(tc.user, ticket))
		})
	}
	assert.False(t, authority.CanAct(&domain.User{ID: "creator"}, nil))
}

func TestAuthorityIsProjectMember(t *testing.T) {
	authority := NewAuthority()
	project := &domain.Project{ID: "alpha", Members: []string{"alice"}}

	assert.True(t, authority.IsProjectMember(&domain.User{ID: "alice"}, project))
	assert.False(t, authority.IsProjectMember(&domain.User{ID: "bob"}, project))
	assert.True(t, authority.IsProjectMember(&domain.User{ID: "root", Roles: []domain.Role{domain.RoleSuperAdmin}}, project))
	assert.False(t, authority.IsProjectMember(&domain.User{ID: "alice"}, nil))
}

func TestAuthorityCanView(t *testing.T) {
	authority := NewAuthority()
	project := &domain.Project{ID: "alpha", Members: []string{"alice", "dave"}}
	ticket := &domain.Ticket{ID: "t1", ProjectID: "alpha", CreatedBy: "erin"}

	assert.True(t, authority.CanView(&domain.User{ID: "dave"}, ticket, project))
	assert.True(t, authority.CanView(&domain.User{ID: "erin"}, ticket, project))
	assert.False(t, authority.CanView(&domain.User{ID: "bob"}, ticket, project))
}

func TestAuthorityCanManageComment(t *testing.T) {
	authority := NewAuthority()
	comment := &domain.TicketComment{ID: "c1", UserID: "alice"}

	assert.True(t, authority.CanManageComment(&domain.User{ID: "alice"}, comment))
	assert.False(t, authority.CanManageComment(&domain.User{ID: "bob"}, comment))
	assert.True(t, authority.CanManageComment(&domain.User{ID: "root", Roles: []domain.Role{domain.RoleSuperAdmin}}, comment))
}
