// internal/models/scenario.go
package models

import (
	"time"
)

// Difficulty levels a scenario can be authored with.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Scenario is one practice scenario: a seekable video plus an ordered
// list of segments, some of which prompt the user for a recorded response.
type Scenario struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Difficulty   string    `json:"difficulty"`
	Duration     float64   `json:"duration"` // seconds, known after metadata load
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	Category     string    `json:"category,omitempty"`
	CreatedBy    string    `json:"created_by,omitempty"` // supervisor user ID
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScenarioMetadata is the listing view of a scenario.
type ScenarioMetadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Difficulty   string    `json:"difficulty"`
	Duration     float64   `json:"duration"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Category     string    `json:"category,omitempty"`
	SegmentCount int       `json:"segment_count"`
	CreatedAt    time.Time `json:"created_at"`
}
