package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestJobStore_SaveGetList(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.SaveJob(ctx, &domain.Job{ID: "old", State: domain.JobCompleted, CreatedAt: base}))
	require.NoError(t, store.SaveJob(ctx, &domain.Job{ID: "new", State: domain.JobRunning, CreatedAt: base.Add(time.Second)}))

	got, err := store.GetJob(ctx, "old")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.JobCompleted, got.State)

	missing, err := store.GetJob(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	jobs, err := store.ListJobs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "new", jobs[0].ID)

	assert.ErrorIs(t, store.SaveJob(ctx, nil), domain.ErrInvalidInput)
}

func TestJobStore_PruneKeepsUnfinished(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.SaveJob(ctx, &domain.Job{ID: "a", State: domain.JobCompleted, CreatedAt: base}))
	require.NoError(t, store.SaveJob(ctx, &domain.Job{ID: "b", State: domain.JobFailed, CreatedAt: base.Add(time.Second)}))
	require.NoError(t, store.SaveJob(ctx, &domain.Job{ID: "c", State: domain.JobPending, CreatedAt: base.Add(-time.Hour)}))

	require.NoError(t, store.PruneJobs(ctx, 1))

	jobs, err := store.ListJobs(ctx, 0)
	require.NoError(t, err)
	ids := []string{}
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"b", "c"}, ids)
}

func TestJobStore_ClaimJob(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	require.NoError(t, store.SaveJob(ctx, &domain.Job{ID: "queued", State: domain.JobPending}))

	claimed, err := store.ClaimJob(ctx, "queued", time.Now())
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.ClaimJob(ctx, "queued", time.Now())
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := store.GetJob(ctx, "queued")
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, got.State)
}
