// internal/services/stats_service.go
package services

import (
	"github.com/Reflectix/CounselLab/internal/storage"
)

// DashboardStats is the aggregate view shown on dashboards.
type DashboardStats struct {
	ScenarioCount    int     `json:"scenario_count"`
	ResponseCount    int     `json:"response_count"`
	PendingReviews   int     `json:"pending_reviews"`
	StartedExercises int     `json:"started_exercises"`
	CompletionRate   float64 `json:"completion_rate"` // 0..1 over started exercises
}

// StatsService computes dashboard aggregates over the record store.
type StatsService struct {
	store     *storage.RecordStore
	responses *ResponseService
	progress  *ProgressService
}

// NewStatsService creates a stats service.
func NewStatsService(store *storage.RecordStore, responses *ResponseService, progress *ProgressService) *StatsService {
	return &StatsService{
		store:     store,
		responses: responses,
		progress:  progress,
	}
}

// Dashboard computes the current aggregates. Counts are derived on
// demand; nothing is cached beyond the record store's own read cache.
func (s *StatsService) Dashboard() (*DashboardStats, error) {
	scenarioIDs, err := s.store.ListIDs(collectionScenarios)
	if err != nil {
		return nil, err
	}

	all, err := s.responses.List(ResponseFilter{})
	if err != nil {
		return nil, err
	}
	pending := 0
	for i := range all {
		if !all[i].Reviewed() {
			pending++
		}
	}

	completed, started, err := s.progress.CompletionCounts()
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		ScenarioCount:    len(scenarioIDs),
		ResponseCount:    len(all),
		PendingReviews:   pending,
		StartedExercises: started,
	}
	if started > 0 {
		stats.CompletionRate = float64(completed) / float64(started)
	}
	return stats, nil
}
