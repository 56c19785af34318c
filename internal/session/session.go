// internal/session/session.go
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Reflectix/CounselLab/internal/capture"
	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/playback"
	"github.com/Reflectix/CounselLab/internal/services"
	"github.com/Reflectix/CounselLab/internal/utils"
)

// Snapshot is the externally visible session state, pushed to
// subscribers after every event.
type Snapshot struct {
	SessionID          string          `json:"session_id"`
	ScenarioID         string          `json:"scenario_id"`
	State              playback.State  `json:"state"`
	Position           float64         `json:"position"`
	Duration           float64         `json:"duration"`
	Playing            bool            `json:"playing"`
	ActiveSegmentIndex int             `json:"active_segment_index"`
	ActiveSegment      *models.Segment `json:"active_segment,omitempty"`
	SegmentCount       int             `json:"segment_count"`
	RecorderPhase      capture.Phase   `json:"recorder_phase"`
	Clip               *capture.Clip   `json:"clip,omitempty"`
	LiveTracks         int             `json:"live_tracks"`
}

// Envelope is one message pushed to session subscribers: either a
// state snapshot or a command the client must apply to its media
// element.
type Envelope struct {
	Type     string    `json:"type"` // "state" or "media_command"
	Command  string    `json:"command,omitempty"`
	Position *float64  `json:"position,omitempty"`
	State    *Snapshot `json:"state,omitempty"`
}

// Session is one user practicing one scenario: a playback controller,
// a recorder over the remote capture device, and the save flow gluing
// them to the persistence collaborators. All entry points serialize on
// the session mutex; the UI event loop this mirrors is single-threaded.
type Session struct {
	ID       string
	UserID   string
	Scenario *models.Scenario

	mu         sync.Mutex
	controller *playback.Controller
	recorder   *capture.Recorder
	device     *remoteDevice
	segments   []models.Segment
	closed     bool
	createdAt  time.Time
	lastActive time.Time

	// A retry after "upload ok, record insert failed" reuses the
	// already-uploaded object instead of sending the blob again.
	pendingSegmentID string
	pendingLocator   string

	responses *services.ResponseService
	progress  *services.ProgressService
	media     *services.MediaService
	metrics   *utils.APIMetrics
	logger    *utils.Logger

	subMu       sync.Mutex
	subscribers map[chan Envelope]bool
}

// sessionMedia relays controller media commands to subscribers; the
// client owns the actual media element.
type sessionMedia struct {
	s *Session
}

func (m sessionMedia) Play() {
	m.s.broadcast(Envelope{Type: "media_command", Command: "play"})
}

func (m sessionMedia) Pause() {
	m.s.broadcast(Envelope{Type: "media_command", Command: "pause"})
}

func (m sessionMedia) SetPosition(seconds float64) {
	m.s.broadcast(Envelope{Type: "media_command", Command: "set_position", Position: &seconds})
}

func newSession(id, userID string, scenario *models.Scenario, segments []models.Segment,
	responses *services.ResponseService, progress *services.ProgressService, media *services.MediaService) *Session {

	s := &Session{
		ID:          id,
		UserID:      userID,
		Scenario:    scenario,
		segments:    segments,
		device:      newRemoteDevice(),
		responses:   responses,
		progress:    progress,
		media:       media,
		metrics:     utils.NewAPIMetrics(),
		logger:      utils.GetLogger(),
		createdAt:   time.Now(),
		lastActive:  time.Now(),
		subscribers: make(map[chan Envelope]bool),
	}

	hooks := playback.Hooks{
		SegmentChanged: func(seg models.Segment, index int) {
			s.metrics.RecordSessionEvent(scenario.ID, "segment_changed")
		},
		PausePointEntered: func(seg models.Segment, index int) {
			s.metrics.RecordSessionEvent(scenario.ID, "pause_point")
		},
	}
	s.controller = playback.NewController(segments, sessionMedia{s: s}, hooks)
	s.recorder = capture.NewRecorder(s.device)
	return s
}

// -----------------------------------------
// Playback events
// -----------------------------------------

// TimeUpdate feeds one media-clock tick into the controller.
func (s *Session) TimeUpdate(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.controller.OnTimeUpdate(t)
	s.pushState()
	return nil
}

// LoadedMetadata records the media duration.
func (s *Session) LoadedMetadata(duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.controller.OnLoadedMetadata(duration)
	s.pushState()
	return nil
}

// Seek jumps to an absolute position.
func (s *Session) Seek(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.controller.Seek(t)
	s.pushState()
	return nil
}

// Skip jumps relative to the current position.
func (s *Session) Skip(delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.controller.Skip(delta)
	s.pushState()
	return nil
}

// SelectSegment navigates to a segment by index.
func (s *Session) SelectSegment(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.controller.SelectSegment(index)
	s.pushState()
	return nil
}

// TogglePlay flips play/pause. Rejected while a capture session is
// active: playback and capture never hold the stage at the same time.
func (s *Session) TogglePlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	if s.recorder.Phase() != capture.PhaseIdle {
		return apperrors.NewValidationError("cannot toggle playback while a recording is active", nil)
	}
	s.controller.TogglePlay()
	s.pushState()
	return nil
}

// -----------------------------------------
// Capture events
// -----------------------------------------

// SetDevicePermission records the client-reported permission state.
func (s *Session) SetDevicePermission(granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.device.SetPermission(granted)
	return nil
}

// StartRecording begins a capture session for the active pause point.
func (s *Session) StartRecording(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}

	if s.controller.State() != playback.StateAwaitingResponse {
		return apperrors.NewValidationError("no response prompt is active", nil)
	}

	if err := s.recorder.Start(kind); err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) {
			// Recoverable: state is unchanged, the user re-initiates
			// after granting access.
			return apperrors.NewPermissionDeniedError(
				"could not access camera/microphone, please check permissions", err)
		}
		return apperrors.NewProcessingError("failed to start recording", err)
	}

	s.controller.Apply(playback.Event{Type: playback.EventStartRecording})
	s.metrics.RecordSessionEvent(s.Scenario.ID, "recording_started")
	s.pushState()
	return nil
}

// PushChunk appends one client-recorded chunk to the active capture.
func (s *Session) PushChunk(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.device.Inject(data)
	return nil
}

// StopRecording finalizes the capture into a previewable clip.
func (s *Session) StopRecording() (*capture.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}

	clip, err := s.recorder.Stop()
	if err != nil {
		return nil, apperrors.NewValidationError("no recording in progress", err)
	}
	s.controller.Apply(playback.Event{Type: playback.EventStopRecording})
	s.pushState()
	return clip, nil
}

// DiscardRecording drops the previewed clip without any network call.
// Only a previewed clip can be discarded; an in-flight recording must
// be stopped first so the capture teardown and the state machine stay
// in step.
func (s *Session) DiscardRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}

	if s.recorder.Phase() != capture.PhasePreviewing {
		return apperrors.NewValidationError("no previewed clip to discard", nil)
	}

	s.recorder.Discard()
	s.pendingSegmentID = ""
	s.pendingLocator = ""
	s.controller.Apply(playback.Event{Type: playback.EventDiscardRecording})
	s.pushState()
	return nil
}

// SaveRecording uploads the previewed clip, persists the response
// record, and advances the exercise. On failure the clip stays in
// memory for a user-initiated retry; a retry never re-uploads a blob
// that already reached storage.
func (s *Session) SaveRecording(notes string) (*models.UserResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}

	clip := s.recorder.Clip()
	if clip == nil {
		return nil, apperrors.NewValidationError("no recorded clip to save", nil)
	}

	seg, idx, ok := s.controller.ActiveSegment()
	if !ok {
		return nil, apperrors.NewValidationError("no active segment for this response", nil)
	}

	locator := s.pendingLocator
	if locator == "" || s.pendingSegmentID != seg.ID {
		uploaded, err := s.media.UploadResponseClip(s.UserID, s.Scenario.ID, seg.ID, clip)
		if err != nil {
			return nil, err // clip retained for retry
		}
		locator = uploaded
		s.pendingSegmentID = seg.ID
		s.pendingLocator = uploaded
	}

	if notes == "" {
		notes = fmt.Sprintf("%s response", clip.Kind)
	}
	resp := &models.UserResponse{
		UserID:      s.UserID,
		ScenarioID:  s.Scenario.ID,
		SegmentID:   seg.ID,
		ResponseURL: locator,
		Kind:        clip.Kind,
		Notes:       notes,
	}
	if err := s.responses.Create(resp); err != nil {
		return nil, err // clip and uploaded object retained for retry
	}

	s.pendingSegmentID = ""
	s.pendingLocator = ""
	s.recorder.Release()
	s.metrics.RecordSessionEvent(s.Scenario.ID, "response_saved")

	if idx >= len(s.segments)-1 {
		// Last segment: the exercise is complete.
		if err := s.progress.MarkCompleted(s.UserID, s.Scenario.ID); err != nil {
			s.logger.Errorf("failed to mark scenario %s completed for %s: %v", s.Scenario.ID, s.UserID, err)
		}
		s.controller.Apply(playback.Event{Type: playback.EventComplete})
	} else {
		s.controller.Apply(playback.Event{Type: playback.EventResponseSaved})
		s.controller.SelectSegment(idx + 1)
		s.controller.Resume()
	}

	s.pushState()
	return resp, nil
}

// SkipResponse resumes playback past a pause point without recording.
// Skipping the last segment's prompt completes the exercise.
func (s *Session) SkipResponse() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}

	if s.controller.State() != playback.StateAwaitingResponse {
		return apperrors.NewValidationError("no response prompt is active", nil)
	}

	_, idx, ok := s.controller.ActiveSegment()
	if ok && idx >= len(s.segments)-1 {
		s.controller.Apply(playback.Event{Type: playback.EventComplete})
	} else {
		s.controller.Apply(playback.Event{Type: playback.EventSkipResponse})
		s.controller.Resume()
	}
	s.metrics.RecordSessionEvent(s.Scenario.ID, "response_skipped")
	s.pushState()
	return nil
}

// -----------------------------------------
// Lifecycle
// -----------------------------------------

// Snapshot builds the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:          s.ID,
		ScenarioID:         s.Scenario.ID,
		State:              s.controller.State(),
		Position:           s.controller.Position(),
		Duration:           s.controller.Duration(),
		Playing:            s.controller.Playing(),
		ActiveSegmentIndex: -1,
		SegmentCount:       len(s.segments),
		RecorderPhase:      s.recorder.Phase(),
		Clip:               s.recorder.Clip(),
		LiveTracks:         s.device.LiveTrackCount(),
	}
	if seg, idx, ok := s.controller.ActiveSegment(); ok {
		segCopy := seg
		snap.ActiveSegment = &segCopy
		snap.ActiveSegmentIndex = idx
	}
	return snap
}

// Close tears the session down. Device tracks are released on every
// teardown, even with an upload still in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.recorder.Close()

	s.subMu.Lock()
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Envelope]bool)
	s.subMu.Unlock()
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive) > ttl
}

func (s *Session) guard() error {
	if s.closed {
		return apperrors.NewValidationError("session is closed", nil)
	}
	s.lastActive = time.Now()
	return nil
}

// -----------------------------------------
// Subscriptions
// -----------------------------------------

// Subscribe registers a listener for session envelopes. The channel
// is buffered; slow consumers miss intermediate snapshots rather than
// blocking the event path.
func (s *Session) Subscribe() chan Envelope {
	ch := make(chan Envelope, 16)
	s.subMu.Lock()
	s.subscribers[ch] = true
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes a listener.
func (s *Session) Unsubscribe(ch chan Envelope) {
	s.subMu.Lock()
	if s.subscribers[ch] {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

func (s *Session) broadcast(env Envelope) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- env:
		default:
		}
	}
}

func (s *Session) pushState() {
	snap := s.snapshotLocked()
	s.broadcast(Envelope{Type: "state", State: &snap})
}
