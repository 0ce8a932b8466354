package service

import (
	"context"
	"slices"

	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/repository"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

// Warning codes returned alongside successful writes.
const (
	WarningAssigneesRemoved = "ASSIGNEES_REMOVED"
	WarningAutoAssigned     = "AUTO_ASSIGNED"
)

// ValidationWarning is a non-fatal notice for the caller to surface.
type ValidationWarning struct {
	Code    string
	Message string
	UserIDs []string
}

// AssigneeValidation is the partition of a proposed assignee list.
type AssigneeValidation struct {
	Accepted []string
	Rejected []string
}

// Partition splits proposed into members and non-members. Duplicates are
// dropped and input order is kept.
func Partition(proposed, members []string) AssigneeValidation {
	result := AssigneeValidation{Accepted: []string{}, Rejected: []string{}}
	seen := make(map[string]struct{}, len(proposed))
	for _, id := range proposed {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if slices.Contains(members, id) {
			result.Accepted = append(result.Accepted, id)
		} else {
			result.Rejected = append(result.Rejected, id)
		}
	}
	return result
}

// AssignmentService validates assignees against current project membership.
type AssignmentService struct {
	projects repository.ProjectRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(projects repository.ProjectRepository) *AssignmentService {
	return &AssignmentService{projects: projects}
}

// Validate re-reads the member set of projectID and partitions proposed against it.
func (s *AssignmentService) Validate(ctx context.Context, projectID string, proposed []string) (AssigneeValidation, []string, error) {
	members, err := s.projects.ListMemberIDs(ctx, projectID)
	if err != nil {
		return AssigneeValidation{}, nil, apperrors.MapError(err, "project", map[string]any{"project_id": projectID})
	}
	return Partition(proposed, members), members, nil
}

// ResolveForCreate returns the assignee set for a new ticket. When nothing
// valid was proposed the actor is assigned, provided the actor is a member.
func (s *AssignmentService) ResolveForCreate(ctx context.Context, actor *domain.User, projectID string, proposed []string) ([]string, []ValidationWarning, error) {
	validation, members, err := s.Validate(ctx, projectID, proposed)
	if err != nil {
		return nil, nil, err
	}

	warnings := rejectionWarnings(validation)
	if len(validation.Accepted) > 0 {
		return validation.Accepted, warnings, nil
	}
	if actor != nil && slices.Contains(members, actor.ID) {
		warnings = append(warnings, ValidationWarning{
			Code:    WarningAutoAssigned,
			Message: "no valid assignees given; ticket assigned to its creator",
			UserIDs: []string{actor.ID},
		})
		return []string{actor.ID}, warnings, nil
	}
	return []string{}, warnings, nil
}

// ResolveForEdit returns the accepted assignees for an edit. The accepted set
// replaces the old one as is, even when empty.
func (s *AssignmentService) ResolveForEdit(ctx context.Context, projectID string, proposed []string) ([]string, []ValidationWarning, error) {
	validation, _, err := s.Validate(ctx, projectID, proposed)
	if err != nil {
		return nil, nil, err
	}
	return validation.Accepted, rejectionWarnings(validation), nil
}

func rejectionWarnings(v AssigneeValidation) []ValidationWarning {
	if len(v.Rejected) == 0 {
		return []ValidationWarning{}
	}
	return []ValidationWarning{{
		Code:    WarningAssigneesRemoved,
		Message: "users who are not project members were removed from assignees",
		UserIDs: v.Rejected,
	}}
}
