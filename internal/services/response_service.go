// internal/services/response_service.go
package services

import (
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/storage"
	"github.com/Reflectix/CounselLab/internal/utils"
)

const collectionResponses = "responses"

// ResponseService handles persisted user responses and their
// supervisor reviews. The in-memory clip lifecycle lives in the
// session; this service only sees uploaded locators.
type ResponseService struct {
	store  *storage.RecordStore
	logger *utils.Logger
}

// NewResponseService creates a response service over a record store.
func NewResponseService(store *storage.RecordStore) *ResponseService {
	return &ResponseService{
		store:  store,
		logger: utils.GetLogger(),
	}
}

// Create persists one response record. Exactly one record is written
// per successful save action.
func (s *ResponseService) Create(resp *models.UserResponse) error {
	if resp.UserID == "" || resp.ScenarioID == "" || resp.SegmentID == "" {
		return apperrors.NewValidationError("user, scenario and segment ids are required", nil)
	}

	now := time.Now()
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	resp.CreatedAt = now
	resp.UpdatedAt = now

	if err := s.store.Save(collectionResponses, resp.ID, resp); err != nil {
		return apperrors.NewStorageError("failed to save response", err)
	}
	return nil
}

// Get loads one response by id.
func (s *ResponseService) Get(id string) (*models.UserResponse, error) {
	if !s.store.Exists(collectionResponses, id) {
		return nil, apperrors.NewNotFoundError("response not found: "+id, nil)
	}

	var resp models.UserResponse
	if err := s.store.Load(collectionResponses, id, &resp); err != nil {
		return nil, apperrors.NewStorageError("failed to load response", err)
	}
	return &resp, nil
}

// List returns responses matching the given filter, newest first.
// Empty filter fields match everything.
func (s *ResponseService) List(filter ResponseFilter) ([]models.UserResponse, error) {
	ids, err := s.store.ListIDs(collectionResponses)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list responses", err)
	}

	responses := make([]models.UserResponse, 0, len(ids))
	for _, id := range ids {
		var resp models.UserResponse
		if err := s.store.Load(collectionResponses, id, &resp); err != nil {
			s.logger.Warnf("skipping unreadable response %s: %v", id, err)
			continue
		}
		if filter.matches(&resp) {
			responses = append(responses, resp)
		}
	}

	sort.Slice(responses, func(i, j int) bool {
		return responses[i].CreatedAt.After(responses[j].CreatedAt)
	})
	return responses, nil
}

// Latest returns the newest response for one user/scenario/segment
// triple, or nil when none exists.
func (s *ResponseService) Latest(userID, scenarioID, segmentID string) (*models.UserResponse, error) {
	responses, err := s.List(ResponseFilter{
		UserID:     userID,
		ScenarioID: scenarioID,
		SegmentID:  segmentID,
	})
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, nil
	}
	return &responses[0], nil
}

// Review records a supervisor's rating and feedback on a response.
func (s *ResponseService) Review(id, reviewerID string, rating int, feedback string) (*models.UserResponse, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	if feedback == "" {
		return nil, apperrors.NewValidationError("feedback is required", nil)
	}

	resp, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	resp.Rating = rating
	resp.Feedback = feedback
	resp.ReviewedBy = reviewerID
	resp.ReviewedAt = &now
	resp.UpdatedAt = now

	if err := s.store.Save(collectionResponses, resp.ID, resp); err != nil {
		return nil, apperrors.NewStorageError("failed to save review", err)
	}
	return resp, nil
}

// ResponseFilter narrows List results.
type ResponseFilter struct {
	UserID       string
	ScenarioID   string
	SegmentID    string
	OnlyPending  bool // only responses awaiting review
	OnlyReviewed bool
}

func (f ResponseFilter) matches(r *models.UserResponse) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.ScenarioID != "" && r.ScenarioID != f.ScenarioID {
		return false
	}
	if f.SegmentID != "" && r.SegmentID != f.SegmentID {
		return false
	}
	if f.OnlyPending && r.Reviewed() {
		return false
	}
	if f.OnlyReviewed && !r.Reviewed() {
		return false
	}
	return true
}
