package service

import (
	"context"
	"strings"

	"github.com/spec-kit/taskboard/internal/auth"
	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/repository"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

const maxCommentLength = 10000

// CommentService manages discussion on tickets.
type CommentService struct {
	comments  repository.TicketCommentRepository
	tickets   repository.TicketRepository
	projects  repository.ProjectRepository
	authority auth.Authority
}

// NewCommentService creates the service.
func NewCommentService(comments repository.TicketCommentRepository, tickets repository.TicketRepository, projects repository.ProjectRepository, authority auth.Authority) *CommentService {
	return &CommentService{comments: comments, tickets: tickets, projects: projects, authority: authority}
}

// List returns comments of a ticket the actor may view.
func (s *CommentService) List(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketComment, error) {
	ticket, project, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.authority.CanView(actor, ticket, project) {
		return nil, permissionDenied(ticketID)
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err, "comments", nil)
	}
	return comments, nil
}

// Add posts a comment. Project members and super admins may comment.
func (s *CommentService) Add(ctx context.Context, actor *domain.User, ticketID, body string) (*domain.TicketComment, error) {
	body, err := validateCommentBody(body)
	if err != nil {
		return nil, err
	}
	_, project, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.authority.IsProjectMember(actor, project) {
		return nil, apperrors.NewPermissionDenied("not a member of this project", map[string]any{"project_id": project.ID})
	}

	comment := &domain.TicketComment{TicketID: ticketID, UserID: actor.ID, Body: body}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err, "comment", nil)
	}
	return comment, nil
}

// Edit replaces the body of a comment owned by the actor.
func (s *CommentService) Edit(ctx context.Context, actor *domain.User, commentID, body string) (*domain.TicketComment, error) {
	body, err := validateCommentBody(body)
	if err != nil {
		return nil, err
	}
	comment, err := s.manageable(ctx, actor, commentID)
	if err != nil {
		return nil, err
	}
	comment.Body = body
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, apperrors.MapError(err, "comment", map[string]any{"comment_id": commentID})
	}
	return comment, nil
}

// Delete removes a comment owned by the actor.
func (s *CommentService) Delete(ctx context.Context, actor *domain.User, commentID string) error {
	if _, err := s.manageable(ctx, actor, commentID); err != nil {
		return err
	}
	return apperrors.MapError(s.comments.Delete(ctx, commentID), "comment", map[string]any{"comment_id": commentID})
}

func (s *CommentService) manageable(ctx context.Context, actor *domain.User, commentID string) (*domain.TicketComment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, apperrors.MapError(err, "comment", map[string]any{"comment_id": commentID})
	}
	if !s.authority.CanManageComment(actor, comment) {
		return nil, apperrors.NewPermissionDenied("only the author or an administrator can change this comment",
			map[string]any{"comment_id": commentID})
	}
	return comment, nil
}

func (s *CommentService) load(ctx context.Context, ticketID string) (*domain.Ticket, *domain.Project, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, apperrors.MapError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	project, err := s.projects.GetByID(ctx, ticket.ProjectID)
	if err != nil {
		return nil, nil, apperrors.MapError(err, "project", nil)
	}
	return ticket, project, nil
}

func validateCommentBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperrors.NewValidationError("comment body is required", map[string]any{"field": "body"})
	}
	if len([]rune(body)) > maxCommentLength {
		return "", apperrors.NewValidationError("comment body is too long", map[string]any{"field": "body", "max": maxCommentLength})
	}
	return body, nil
}
