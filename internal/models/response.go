// internal/models/response.go
package models

import (
	"time"
)

// Recording kinds. "video" implies audio+video.
const (
	RecordingKindVideo = "video"
	RecordingKindAudio = "audio"
)

// UserResponse is one recorded answer to a segment's pause point,
// persisted after the clip has been uploaded to blob storage.
type UserResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ScenarioID  string    `json:"scenario_id"`
	SegmentID   string    `json:"segment_id"`
	ResponseURL string    `json:"response_url,omitempty"` // public locator of the uploaded clip
	Kind        string    `json:"kind,omitempty"`         // "video" or "audio"
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Supervisor review, absent until reviewed.
	Rating     int        `json:"rating,omitempty"` // 1-5
	Feedback   string     `json:"feedback,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// Reviewed reports whether a supervisor has rated this response.
func (r *UserResponse) Reviewed() bool {
	return r.ReviewedAt != nil
}
