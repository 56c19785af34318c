// internal/services/scenario_service.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/storage"
	"github.com/Reflectix/CounselLab/internal/utils"
)

const (
	collectionScenarios = "scenarios"
	collectionSegments  = "segments"
)

// ScenarioService handles scenario and segment records.
type ScenarioService struct {
	store  *storage.RecordStore
	logger *utils.Logger
}

// NewScenarioService creates a scenario service over a record store.
func NewScenarioService(store *storage.RecordStore) *ScenarioService {
	return &ScenarioService{
		store:  store,
		logger: utils.GetLogger(),
	}
}

// segmentCollection scopes segment records per scenario so listing a
// scenario's segments never scans unrelated records.
func segmentCollection(scenarioID string) string {
	return collectionSegments + "/" + scenarioID
}

// CreateScenario validates and persists a scenario without segments.
func (s *ScenarioService) CreateScenario(scenario *models.Scenario) error {
	if scenario.Title == "" {
		return apperrors.NewValidationError("scenario title is required", nil)
	}
	if scenario.Difficulty == "" {
		scenario.Difficulty = models.DifficultyBeginner
	}

	now := time.Now()
	if scenario.ID == "" {
		scenario.ID = uuid.NewString()
	}
	scenario.CreatedAt = now
	scenario.UpdatedAt = now

	if err := s.store.Save(collectionScenarios, scenario.ID, scenario); err != nil {
		return apperrors.NewStorageError("failed to save scenario", err)
	}
	return nil
}

// CreateWithSegments persists a scenario and its segments as one
// logical write. The record store has no transactions, so a failed
// child insert triggers compensation: every already-written segment
// and the parent are deleted, leaving no orphaned scenario behind.
func (s *ScenarioService) CreateWithSegments(scenario *models.Scenario, segments []models.Segment) (*models.Scenario, error) {
	if err := s.CreateScenario(scenario); err != nil {
		return nil, err
	}

	// Segment order is start_time ascending everywhere downstream.
	sorted := make([]models.Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	now := time.Now()
	written := make([]string, 0, len(sorted))
	for i := range sorted {
		seg := &sorted[i]
		if seg.ID == "" {
			seg.ID = uuid.NewString()
		}
		seg.ScenarioID = scenario.ID
		seg.CreatedAt = now
		seg.UpdatedAt = now

		if err := s.store.Save(segmentCollection(scenario.ID), seg.ID, seg); err != nil {
			s.compensate(scenario.ID, written)
			return nil, apperrors.NewStorageError(
				fmt.Sprintf("failed to save segment %d of %d, scenario rolled back", i+1, len(sorted)), err)
		}
		written = append(written, seg.ID)
	}

	return scenario, nil
}

// compensate removes the partial write set after a failed child insert.
func (s *ScenarioService) compensate(scenarioID string, segmentIDs []string) {
	for _, id := range segmentIDs {
		if err := s.store.Delete(segmentCollection(scenarioID), id); err != nil {
			s.logger.Warnf("compensation: failed to delete segment %s: %v", id, err)
		}
	}
	if err := s.store.Delete(collectionScenarios, scenarioID); err != nil {
		s.logger.Warnf("compensation: failed to delete scenario %s: %v", scenarioID, err)
	}
}

// GetScenario loads one scenario by id.
func (s *ScenarioService) GetScenario(id string) (*models.Scenario, error) {
	if !s.store.Exists(collectionScenarios, id) {
		return nil, apperrors.NewNotFoundError("scenario not found: "+id, nil)
	}

	var scenario models.Scenario
	if err := s.store.Load(collectionScenarios, id, &scenario); err != nil {
		return nil, apperrors.NewStorageError("failed to load scenario", err)
	}
	return &scenario, nil
}

// UpdateScenario persists changes to an existing scenario.
func (s *ScenarioService) UpdateScenario(scenario *models.Scenario) error {
	if !s.store.Exists(collectionScenarios, scenario.ID) {
		return apperrors.NewNotFoundError("scenario not found: "+scenario.ID, nil)
	}
	scenario.UpdatedAt = time.Now()
	if err := s.store.Save(collectionScenarios, scenario.ID, scenario); err != nil {
		return apperrors.NewStorageError("failed to update scenario", err)
	}
	return nil
}

// DeleteScenario removes a scenario and all of its segments.
func (s *ScenarioService) DeleteScenario(id string) error {
	if !s.store.Exists(collectionScenarios, id) {
		return apperrors.NewNotFoundError("scenario not found: "+id, nil)
	}

	segIDs, err := s.store.ListIDs(segmentCollection(id))
	if err != nil {
		return apperrors.NewStorageError("failed to list segments", err)
	}
	for _, segID := range segIDs {
		if err := s.store.Delete(segmentCollection(id), segID); err != nil {
			return apperrors.NewStorageError("failed to delete segment "+segID, err)
		}
	}

	if err := s.store.Delete(collectionScenarios, id); err != nil {
		return apperrors.NewStorageError("failed to delete scenario", err)
	}
	return nil
}

// ListScenarios returns listing metadata for all scenarios, newest
// first.
func (s *ScenarioService) ListScenarios() ([]models.ScenarioMetadata, error) {
	ids, err := s.store.ListIDs(collectionScenarios)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list scenarios", err)
	}

	metadata := make([]models.ScenarioMetadata, 0, len(ids))
	for _, id := range ids {
		var scenario models.Scenario
		if err := s.store.Load(collectionScenarios, id, &scenario); err != nil {
			s.logger.Warnf("skipping unreadable scenario %s: %v", id, err)
			continue
		}

		segIDs, err := s.store.ListIDs(segmentCollection(id))
		if err != nil {
			segIDs = nil
		}

		metadata = append(metadata, models.ScenarioMetadata{
			ID:           scenario.ID,
			Title:        scenario.Title,
			Difficulty:   scenario.Difficulty,
			Duration:     scenario.Duration,
			ThumbnailURL: scenario.ThumbnailURL,
			Category:     scenario.Category,
			SegmentCount: len(segIDs),
			CreatedAt:    scenario.CreatedAt,
		})
	}

	sort.Slice(metadata, func(i, j int) bool {
		return metadata[i].CreatedAt.After(metadata[j].CreatedAt)
	})
	return metadata, nil
}

// ListSegments returns a scenario's segments sorted by start time
// ascending, the order every playback consumer relies on.
func (s *ScenarioService) ListSegments(scenarioID string) ([]models.Segment, error) {
	if !s.store.Exists(collectionScenarios, scenarioID) {
		return nil, apperrors.NewNotFoundError("scenario not found: "+scenarioID, nil)
	}

	ids, err := s.store.ListIDs(segmentCollection(scenarioID))
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list segments", err)
	}

	segments := make([]models.Segment, 0, len(ids))
	for _, id := range ids {
		var seg models.Segment
		if err := s.store.Load(segmentCollection(scenarioID), id, &seg); err != nil {
			s.logger.Warnf("skipping unreadable segment %s: %v", id, err)
			continue
		}
		segments = append(segments, seg)
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartTime < segments[j].StartTime
	})
	return segments, nil
}

// GetSegment loads one segment of a scenario.
func (s *ScenarioService) GetSegment(scenarioID, segmentID string) (*models.Segment, error) {
	if !s.store.Exists(segmentCollection(scenarioID), segmentID) {
		return nil, apperrors.NewNotFoundError("segment not found: "+segmentID, nil)
	}

	var seg models.Segment
	if err := s.store.Load(segmentCollection(scenarioID), segmentID, &seg); err != nil {
		return nil, apperrors.NewStorageError("failed to load segment", err)
	}
	return &seg, nil
}

// UpdateSegment persists changes to an existing segment (expert
// response locator, annotations).
func (s *ScenarioService) UpdateSegment(seg *models.Segment) error {
	if !s.store.Exists(segmentCollection(seg.ScenarioID), seg.ID) {
		return apperrors.NewNotFoundError("segment not found: "+seg.ID, nil)
	}
	seg.UpdatedAt = time.Now()
	if err := s.store.Save(segmentCollection(seg.ScenarioID), seg.ID, seg); err != nil {
		return apperrors.NewStorageError("failed to update segment", err)
	}
	return nil
}
