// internal/capture/device.go
package capture

import (
	"errors"
)

// Video constraints requested for video-kind recordings.
const (
	DefaultVideoWidth  = 1280
	DefaultVideoHeight = 720
)

// ErrPermissionDenied is returned by a Device when the user refuses
// access to the camera or microphone. Recoverable: the user must
// re-initiate recording, nothing retries automatically.
var ErrPermissionDenied = errors.New("capture device permission denied")

// Constraints describe the requested capture configuration. Audio is
// always requested; video only for video-kind recordings.
type Constraints struct {
	Audio       bool `json:"audio"`
	Video       bool `json:"video"`
	VideoWidth  int  `json:"video_width,omitempty"`
	VideoHeight int  `json:"video_height,omitempty"`
}

// Track is one live hardware track (camera or microphone). Every
// acquired track must be stopped on every path; a leaked track leaves
// the camera light on.
type Track interface {
	Kind() string // "audio" or "video"
	Stop()
}

// Stream is a live capture stream producing encoded chunks.
type Stream interface {
	// Start begins delivering encoded chunks to the callback. The
	// callback may fire zero times before Stop.
	Start(onChunk func(data []byte))
	// Stop halts chunk delivery. It does not stop the tracks.
	Stop()
	// Tracks returns the live hardware tracks backing the stream.
	Tracks() []Track
}

// Device acquires capture streams. Opening is the user-visible
// permission prompt; it can fail with ErrPermissionDenied.
type Device interface {
	Open(c Constraints) (Stream, error)
}

// ConstraintsFor builds the acquisition constraints for a recording
// kind: audio always, video at 1280x720 only for "video".
func ConstraintsFor(kind string) Constraints {
	c := Constraints{Audio: true}
	if kind == "video" {
		c.Video = true
		c.VideoWidth = DefaultVideoWidth
		c.VideoHeight = DefaultVideoHeight
	}
	return c
}
