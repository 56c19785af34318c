// internal/models/segment.go
package models

import (
	"time"
)

// Segment is a named time interval within a scenario's video.
// EndTime == nil means the segment extends to the next segment's start,
// or to the end of the video for the last one. A segment flagged as a
// pause point interrupts playback and prompts for a recorded response.
type Segment struct {
	ID                string    `json:"id"`
	ScenarioID        string    `json:"scenario_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	StartTime         float64   `json:"start_time"` // seconds
	EndTime           *float64  `json:"end_time"`   // seconds, nil = open ended
	PausePoint        bool      `json:"pause_point"`
	ExpertResponseURL string    `json:"expert_response_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Contains reports whether t falls inside the segment's half-open
// interval [StartTime, EndTime). Open-ended segments contain every
// position at or after their start.
func (s *Segment) Contains(t float64) bool {
	if t < s.StartTime {
		return false
	}
	if s.EndTime == nil {
		return true
	}
	return t < *s.EndTime
}
