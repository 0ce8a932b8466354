package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

func TestStatsScope(t *testing.T) {
	f := newFixture()
	repo := &fakeStats{}
	svc := NewStatsService(repo)

	stats, err := svc.Overview(context.Background(), f.root)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Tickets)
	assert.Nil(t, repo.gotScope)

	_, err = svc.Overview(context.Background(), f.alice)
	require.NoError(t, err)
	require.NotNil(t, repo.gotScope)
	assert.Equal(t, "alice", *repo.gotScope)

	_, err = svc.Overview(context.Background(), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
