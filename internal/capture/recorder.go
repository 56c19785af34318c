// internal/capture/recorder.go
package capture

import (
	"fmt"
	"sync"

	"github.com/Reflectix/CounselLab/internal/models"
)

// Recorder phase.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRecording  Phase = "recording"
	PhasePreviewing Phase = "previewing"
)

// Clip is a finalized in-memory recording, held only for the
// preview-before-save step. It is released on discard or after a
// successful save.
type Clip struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
	Kind     string `json:"kind"` // "video" or "audio"
	Size     int    `json:"size"`
}

// Recorder runs one capture session at a time: acquire the device,
// accumulate chunks, finalize into a Clip, preview, then discard or
// hand off. Device tracks are stopped on every exit path.
type Recorder struct {
	mu     sync.Mutex
	device Device

	phase  Phase
	kind   string
	stream Stream
	chunks [][]byte
	clip   *Clip
}

// NewRecorder creates a recorder over a capture device.
func NewRecorder(device Device) *Recorder {
	return &Recorder{
		device: device,
		phase:  PhaseIdle,
	}
}

// Start acquires the device and begins accumulating chunks. On device
// error or permission denial the recorder stays idle and the error is
// surfaced to the caller.
func (r *Recorder) Start(kind string) error {
	r.mu.Lock()

	if r.phase != PhaseIdle {
		r.mu.Unlock()
		return fmt.Errorf("recording already in progress (phase %s)", r.phase)
	}
	if kind != models.RecordingKindVideo && kind != models.RecordingKindAudio {
		r.mu.Unlock()
		return fmt.Errorf("unknown recording kind: %s", kind)
	}
	if r.device == nil {
		r.mu.Unlock()
		return fmt.Errorf("no capture device attached")
	}

	stream, err := r.device.Open(ConstraintsFor(kind))
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("acquiring capture device: %w", err)
	}

	r.kind = kind
	r.stream = stream
	r.chunks = nil
	r.phase = PhaseRecording
	r.mu.Unlock()

	// Started outside the lock: streams may deliver the first chunk
	// synchronously and appendChunk takes the lock itself.
	stream.Start(r.appendChunk)
	return nil
}

// appendChunk accumulates one encoded chunk. Chunks arriving after
// Stop are dropped.
func (r *Recorder) appendChunk(data []byte) {
	if len(data) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseRecording {
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	r.chunks = append(r.chunks, buf)
}

// Stop finalizes the accumulated chunks into a Clip, stops every
// device track, and enters the previewing phase. Stopping before any
// chunk arrived yields an empty clip, which is still saveable: there
// is no minimum-duration gate.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseRecording {
		return nil, fmt.Errorf("not recording (phase %s)", r.phase)
	}

	r.stream.Stop()
	stopTracks(r.stream)
	r.stream = nil

	var size int
	for _, c := range r.chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range r.chunks {
		data = append(data, c...)
	}
	r.chunks = nil

	mime := "audio/webm"
	if r.kind == models.RecordingKindVideo {
		mime = "video/webm"
	}
	r.clip = &Clip{
		Data:     data,
		MIMEType: mime,
		Kind:     r.kind,
		Size:     len(data),
	}
	r.phase = PhasePreviewing
	return r.clip, nil
}

// Discard drops the current capture and returns to idle. Discarding
// mid-recording cancels the capture and stops the live tracks, so no
// path out of the recorder leaves a device track running. No network
// call is involved.
func (r *Recorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		r.stream.Stop()
		stopTracks(r.stream)
		r.stream = nil
	}
	r.chunks = nil
	r.clip = nil
	r.kind = ""
	r.phase = PhaseIdle
}

// Release drops the clip after a successful save and returns to idle.
func (r *Recorder) Release() {
	r.Discard()
}

// Clip returns the previewed clip, or nil outside the previewing
// phase. The clip survives a failed save so the user can retry with
// the original recording.
func (r *Recorder) Clip() *Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhasePreviewing {
		return nil
	}
	return r.clip
}

// Phase returns the current recorder phase.
func (r *Recorder) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Close is the teardown path: stop any live tracks regardless of
// phase. Safe to call repeatedly, and must be called on session
// teardown even with a save in flight.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		r.stream.Stop()
		stopTracks(r.stream)
		r.stream = nil
	}
	r.chunks = nil
	r.clip = nil
	r.phase = PhaseIdle
}

func stopTracks(s Stream) {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
