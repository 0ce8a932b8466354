package auth

import "github.com/spec-kit/taskboard/internal/domain"

// Authority answers who may act on projects and tickets. Every entry point
// consults it instead of checking roles inline.
type Authority struct{}

// NewAuthority returns the membership authority.
func NewAuthority() Authority {
	return Authority{}
}

// CanAct reports whether user may edit or move ticket: super admin, creator, or current assignee.
func (Authority) CanAct(user *domain.User, ticket *domain.Ticket) bool {
	if user == nil || ticket == nil {
		return false
	}
	if user.IsSuperAdmin() {
		return true
	}
	return ticket.CreatedBy == user.ID || ticket.IsAssignee(user.ID)
}

// IsProjectMember reports whether user is a super admin or belongs to project.
func (Authority) IsProjectMember(user *domain.User, project *domain.Project) bool {
	if user == nil || project == nil {
		return false
	}
	return user.IsSuperAdmin() || project.HasMember(user.ID)
}

// CanView reports whether user may read ticket. Project members see every ticket of the project.
func (a Authority) CanView(user *domain.User, ticket *domain.Ticket, project *domain.Project) bool {
	return a.CanAct(user, ticket) || a.IsProjectMember(user, project)
}

// CanManageComment reports whether user may edit or delete comment.
func (Authority) CanManageComment(user *domain.User, comment *domain.TicketComment) bool {
	if user == nil || comment == nil {
		return false
	}
	return user.IsSuperAdmin() || comment.UserID == user.ID
}
