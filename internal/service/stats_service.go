package service

import (
	"context"
	"time"

	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/repository"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

// StatsService builds the dashboard overview.
type StatsService struct {
	stats repository.StatsRepository
	now   func() time.Time
}

// NewStatsService creates the service.
func NewStatsService(stats repository.StatsRepository) *StatsService {
	return &StatsService{stats: stats, now: time.Now}
}

// Overview returns global counters for super admins and project-scoped
// counters for everyone else.
func (s *StatsService) Overview(ctx context.Context, actor *domain.User) (*domain.Stats, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	var scope *string
	if !actor.IsSuperAdmin() {
		scope = &actor.ID
	}
	stats, err := s.stats.Overview(ctx, actor.ID, scope, s.now())
	if err != nil {
		return nil, apperrors.MapError(err, "stats", nil)
	}
	return stats, nil
}
