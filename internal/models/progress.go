// internal/models/progress.go
package models

import (
	"time"
)

// UserProgress tracks one user's completion state for one scenario.
// Upserted: a user has at most one progress record per scenario.
type UserProgress struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	ScenarioID     string     `json:"scenario_id"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	Rating         int        `json:"rating,omitempty"` // user's self-rating of the exercise
	Feedback       string     `json:"feedback,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
