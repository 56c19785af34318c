// internal/services/progress_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reflectix/CounselLab/internal/models"
)

func TestProgressGetAbsent(t *testing.T) {
	svc := NewProgressService(newTestStore(t))

	// Never-touched scenario: nil record, no error.
	progress, err := svc.Get("alice", "scen1")
	require.NoError(t, err)
	assert.Nil(t, progress)
}

func TestProgressMarkStarted(t *testing.T) {
	svc := NewProgressService(newTestStore(t))

	require.NoError(t, svc.MarkStarted("alice", "scen1"))

	progress, err := svc.Get("alice", "scen1")
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.False(t, progress.Completed)
	assert.Nil(t, progress.CompletionDate)

	// Re-opening an already-completed scenario must not reset it.
	require.NoError(t, svc.MarkCompleted("alice", "scen1"))
	require.NoError(t, svc.MarkStarted("alice", "scen1"))

	progress, err = svc.Get("alice", "scen1")
	require.NoError(t, err)
	assert.True(t, progress.Completed)
}

func TestProgressMarkCompleted(t *testing.T) {
	svc := NewProgressService(newTestStore(t))

	require.NoError(t, svc.MarkCompleted("alice", "scen1"))

	progress, err := svc.Get("alice", "scen1")
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.True(t, progress.Completed)
	require.NotNil(t, progress.CompletionDate)
}

func TestProgressUpsert(t *testing.T) {
	svc := NewProgressService(newTestStore(t))

	require.NoError(t, svc.Upsert(&models.UserProgress{
		UserID:     "alice",
		ScenarioID: "scen1",
	}))
	original, err := svc.Get("alice", "scen1")
	require.NoError(t, err)

	require.NoError(t, svc.Upsert(&models.UserProgress{
		UserID:     "alice",
		ScenarioID: "scen1",
		Rating:     4,
		Feedback:   "helpful exercise",
	}))

	updated, err := svc.Get("alice", "scen1")
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
	// CreatedAt survives the upsert.
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
	assert.Equal(t, original.ID, updated.ID)

	t.Run("ids required", func(t *testing.T) {
		assert.Error(t, svc.Upsert(&models.UserProgress{UserID: "alice"}))
	})
}

func TestProgressListByUser(t *testing.T) {
	svc := NewProgressService(newTestStore(t))

	require.NoError(t, svc.MarkStarted("alice", "scen1"))
	require.NoError(t, svc.MarkStarted("alice", "scen2"))
	require.NoError(t, svc.MarkStarted("bob", "scen1"))

	records, err := svc.ListByUser("alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "alice", r.UserID)
	}
}

func TestProgressCompletionCounts(t *testing.T) {
	svc := NewProgressService(newTestStore(t))

	require.NoError(t, svc.MarkStarted("alice", "scen1"))
	require.NoError(t, svc.MarkStarted("bob", "scen1"))
	require.NoError(t, svc.MarkCompleted("alice", "scen1"))

	completed, total, err := svc.CompletionCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 2, total)
}
