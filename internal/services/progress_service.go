// internal/services/progress_service.go
package services

import (
	"sort"
	"time"

	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/storage"
	"github.com/Reflectix/CounselLab/internal/utils"
)

const collectionProgress = "progress"

// ProgressService tracks per-user scenario completion. Records are
// upserts: the id is derived from the user/scenario pair, so a user
// has at most one progress record per scenario.
type ProgressService struct {
	store  *storage.RecordStore
	logger *utils.Logger
}

// NewProgressService creates a progress service over a record store.
func NewProgressService(store *storage.RecordStore) *ProgressService {
	return &ProgressService{
		store:  store,
		logger: utils.GetLogger(),
	}
}

func progressID(userID, scenarioID string) string {
	return userID + "_" + scenarioID
}

// Get returns the progress record for a user and scenario, or nil
// when the user never touched the scenario.
func (s *ProgressService) Get(userID, scenarioID string) (*models.UserProgress, error) {
	id := progressID(userID, scenarioID)
	if !s.store.Exists(collectionProgress, id) {
		return nil, nil
	}

	var progress models.UserProgress
	if err := s.store.Load(collectionProgress, id, &progress); err != nil {
		return nil, apperrors.NewStorageError("failed to load progress", err)
	}
	return &progress, nil
}

// Upsert creates or updates the progress record for a user/scenario
// pair.
func (s *ProgressService) Upsert(progress *models.UserProgress) error {
	if progress.UserID == "" || progress.ScenarioID == "" {
		return apperrors.NewValidationError("user and scenario ids are required", nil)
	}

	id := progressID(progress.UserID, progress.ScenarioID)
	now := time.Now()

	existing, err := s.Get(progress.UserID, progress.ScenarioID)
	if err != nil {
		return err
	}
	if existing != nil {
		progress.CreatedAt = existing.CreatedAt
	} else {
		progress.CreatedAt = now
	}
	progress.ID = id
	progress.UpdatedAt = now

	if err := s.store.Save(collectionProgress, id, progress); err != nil {
		return apperrors.NewStorageError("failed to save progress", err)
	}
	return nil
}

// MarkCompleted upserts a completed progress record with the current
// completion date. Called when the last segment's response is saved.
func (s *ProgressService) MarkCompleted(userID, scenarioID string) error {
	now := time.Now()
	return s.Upsert(&models.UserProgress{
		UserID:         userID,
		ScenarioID:     scenarioID,
		Completed:      true,
		CompletionDate: &now,
	})
}

// MarkStarted records that a user opened a scenario, without touching
// existing completion state.
func (s *ProgressService) MarkStarted(userID, scenarioID string) error {
	existing, err := s.Get(userID, scenarioID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.Upsert(&models.UserProgress{
		UserID:     userID,
		ScenarioID: scenarioID,
		Completed:  false,
	})
}

// ListByUser returns all progress records for one user, most recently
// updated first.
func (s *ProgressService) ListByUser(userID string) ([]models.UserProgress, error) {
	ids, err := s.store.ListIDs(collectionProgress)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list progress", err)
	}

	records := make([]models.UserProgress, 0)
	for _, id := range ids {
		var progress models.UserProgress
		if err := s.store.Load(collectionProgress, id, &progress); err != nil {
			s.logger.Warnf("skipping unreadable progress record %s: %v", id, err)
			continue
		}
		if progress.UserID == userID {
			records = append(records, progress)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

// CompletionCounts returns (completed, total) across all progress
// records.
func (s *ProgressService) CompletionCounts() (int, int, error) {
	ids, err := s.store.ListIDs(collectionProgress)
	if err != nil {
		return 0, 0, apperrors.NewStorageError("failed to list progress", err)
	}

	completed := 0
	total := 0
	for _, id := range ids {
		var progress models.UserProgress
		if err := s.store.Load(collectionProgress, id, &progress); err != nil {
			continue
		}
		total++
		if progress.Completed {
			completed++
		}
	}
	return completed, total, nil
}
