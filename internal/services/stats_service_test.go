// internal/services/stats_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reflectix/CounselLab/internal/models"
)

func TestDashboard(t *testing.T) {
	store := newTestStore(t)
	scenarios := NewScenarioService(store)
	responses := NewResponseService(store)
	progress := NewProgressService(store)
	svc := NewStatsService(store, responses, progress)

	t.Run("empty store", func(t *testing.T) {
		stats, err := svc.Dashboard()
		require.NoError(t, err)
		assert.Zero(t, stats.ScenarioCount)
		assert.Zero(t, stats.ResponseCount)
		assert.Zero(t, stats.CompletionRate)
	})

	require.NoError(t, scenarios.CreateScenario(&models.Scenario{Title: "One"}))
	require.NoError(t, scenarios.CreateScenario(&models.Scenario{Title: "Two"}))

	reviewed := seedResponse(t, responses, "alice", "scen1", "seg1")
	seedResponse(t, responses, "alice", "scen1", "seg2")
	seedResponse(t, responses, "bob", "scen1", "seg1")
	_, err := responses.Review(reviewed.ID, "supervisor1", 4, "solid")
	require.NoError(t, err)

	require.NoError(t, progress.MarkStarted("alice", "scen1"))
	require.NoError(t, progress.MarkStarted("bob", "scen1"))
	require.NoError(t, progress.MarkCompleted("alice", "scen1"))

	stats, err := svc.Dashboard()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ScenarioCount)
	assert.Equal(t, 3, stats.ResponseCount)
	assert.Equal(t, 2, stats.PendingReviews)
	assert.Equal(t, 2, stats.StartedExercises)
	assert.InDelta(t, 0.5, stats.CompletionRate, 1e-9)
}
