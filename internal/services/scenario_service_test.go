// internal/services/scenario_service_test.go
package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/storage"
)

func newTestStore(t *testing.T) *storage.RecordStore {
	t.Helper()
	store, err := storage.NewRecordStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func end(v float64) *float64 { return &v }

func TestCreateScenario(t *testing.T) {
	svc := NewScenarioService(newTestStore(t))

	t.Run("assigns id and defaults", func(t *testing.T) {
		scenario := &models.Scenario{Title: "Intake"}
		require.NoError(t, svc.CreateScenario(scenario))
		assert.NotEmpty(t, scenario.ID)
		assert.Equal(t, models.DifficultyBeginner, scenario.Difficulty)
		assert.False(t, scenario.CreatedAt.IsZero())
	})

	t.Run("title is required", func(t *testing.T) {
		err := svc.CreateScenario(&models.Scenario{})
		assert.True(t, apperrors.IsValidationError(err))
	})
}

func TestCreateWithSegments(t *testing.T) {
	svc := NewScenarioService(newTestStore(t))

	scenario, err := svc.CreateWithSegments(
		&models.Scenario{Title: "Intake"},
		[]models.Segment{
			// Deliberately out of order.
			{Title: "Middle", StartTime: 60, EndTime: end(120), PausePoint: true},
			{Title: "Open", StartTime: 0, EndTime: end(60)},
			{Title: "Close", StartTime: 120},
		})
	require.NoError(t, err)

	segments, err := svc.ListSegments(scenario.ID)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	// Stored and listed sorted by start time ascending.
	assert.Equal(t, []string{"Open", "Middle", "Close"},
		[]string{segments[0].Title, segments[1].Title, segments[2].Title})
	for _, seg := range segments {
		assert.Equal(t, scenario.ID, seg.ScenarioID)
		assert.NotEmpty(t, seg.ID)
	}
}

func TestCreateWithSegmentsCompensation(t *testing.T) {
	store := newTestStore(t)
	svc := NewScenarioService(store)

	// Force the second segment write to fail: a directory squatting on
	// the record's temp-file path makes the write error out.
	blocked := filepath.Join(store.BaseDir, "segments", "scen1", "seg2.json.tmp")
	require.NoError(t, os.MkdirAll(blocked, 0755))

	_, err := svc.CreateWithSegments(
		&models.Scenario{ID: "scen1", Title: "Doomed"},
		[]models.Segment{
			{ID: "seg1", Title: "First", StartTime: 0, EndTime: end(60)},
			{ID: "seg2", Title: "Second", StartTime: 60},
		})
	require.Error(t, err)
	assert.True(t, apperrors.IsStorageError(err))

	// The parent and the already-written segment were rolled back.
	assert.False(t, store.Exists("scenarios", "scen1"))
	assert.False(t, store.Exists("segments/scen1", "seg1"))
}

func TestGetScenario(t *testing.T) {
	svc := NewScenarioService(newTestStore(t))

	scenario := &models.Scenario{Title: "Intake", Category: "intake"}
	require.NoError(t, svc.CreateScenario(scenario))

	got, err := svc.GetScenario(scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intake", got.Title)
	assert.Equal(t, "intake", got.Category)

	_, err = svc.GetScenario("nope")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestUpdateScenario(t *testing.T) {
	svc := NewScenarioService(newTestStore(t))

	scenario := &models.Scenario{Title: "Intake"}
	require.NoError(t, svc.CreateScenario(scenario))

	scenario.Title = "Intake, revised"
	require.NoError(t, svc.UpdateScenario(scenario))

	got, err := svc.GetScenario(scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intake, revised", got.Title)

	err = svc.UpdateScenario(&models.Scenario{ID: "nope", Title: "x"})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestDeleteScenario(t *testing.T) {
	store := newTestStore(t)
	svc := NewScenarioService(store)

	scenario, err := svc.CreateWithSegments(
		&models.Scenario{Title: "Intake"},
		[]models.Segment{{Title: "Only", StartTime: 0}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteScenario(scenario.ID))

	_, err = svc.GetScenario(scenario.ID)
	assert.True(t, apperrors.IsNotFoundError(err))

	// The segment records went with it.
	ids, err := store.ListIDs("segments/" + scenario.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.True(t, apperrors.IsNotFoundError(svc.DeleteScenario(scenario.ID)))
}

func TestListScenarios(t *testing.T) {
	svc := NewScenarioService(newTestStore(t))

	_, err := svc.CreateWithSegments(
		&models.Scenario{Title: "With segments"},
		[]models.Segment{{Title: "A", StartTime: 0}, {Title: "B", StartTime: 10}})
	require.NoError(t, err)
	require.NoError(t, svc.CreateScenario(&models.Scenario{Title: "Bare"}))

	listed, err := svc.ListScenarios()
	require.NoError(t, err)
	require.Len(t, listed, 2)

	counts := map[string]int{}
	for _, meta := range listed {
		counts[meta.Title] = meta.SegmentCount
	}
	assert.Equal(t, 2, counts["With segments"])
	assert.Equal(t, 0, counts["Bare"])
}

func TestListSegmentsUnknownScenario(t *testing.T) {
	svc := NewScenarioService(newTestStore(t))
	_, err := svc.ListSegments("nope")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestUpdateSegment(t *testing.T) {
	svc := NewScenarioService(newTestStore(t))

	scenario, err := svc.CreateWithSegments(
		&models.Scenario{Title: "Intake"},
		[]models.Segment{{Title: "Only", StartTime: 0, PausePoint: true}})
	require.NoError(t, err)

	segments, err := svc.ListSegments(scenario.ID)
	require.NoError(t, err)
	require.Len(t, segments, 1)

	seg := segments[0]
	seg.ExpertResponseURL = "http://localhost:8080/storage/expert-responses/x.webm"
	require.NoError(t, svc.UpdateSegment(&seg))

	got, err := svc.GetSegment(scenario.ID, seg.ID)
	require.NoError(t, err)
	assert.Equal(t, seg.ExpertResponseURL, got.ExpertResponseURL)
}
