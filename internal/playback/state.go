// internal/playback/state.go
package playback

// State is the practice-session playback state.
type State string

const (
	StateIdle               State = "idle"
	StatePlaying            State = "playing"
	StatePausedAtSegment    State = "paused_at_segment"
	StateAwaitingResponse   State = "awaiting_response"
	StateRecordingResponse  State = "recording_response"
	StatePreviewingResponse State = "previewing_response"
	StateCompleted          State = "completed"
)

// EventType identifies a playback or capture lifecycle event.
type EventType string

const (
	EventPlay             EventType = "play"
	EventPause            EventType = "pause"
	EventEnterPausePoint  EventType = "enter_pause_point"
	EventStartRecording   EventType = "start_recording"
	EventStopRecording    EventType = "stop_recording"
	EventDiscardRecording EventType = "discard_recording"
	EventResponseSaved    EventType = "response_saved"
	EventSkipResponse     EventType = "skip_response"
	EventComplete         EventType = "complete"
)

// Event is a single input to the state machine.
type Event struct {
	Type EventType `json:"type"`
}

// Transition is the pure state-transition function. Events that are not
// legal in the current state leave it unchanged; callers that care can
// compare before and after.
func Transition(s State, ev Event) State {
	switch ev.Type {
	case EventPlay:
		switch s {
		case StateIdle, StatePausedAtSegment, StateAwaitingResponse:
			// Resuming out of AwaitingResponse without a recording is
			// allowed: pause points are advisory prompts, not gates.
			return StatePlaying
		}
	case EventPause:
		if s == StatePlaying {
			return StatePausedAtSegment
		}
	case EventEnterPausePoint:
		switch s {
		case StateIdle, StatePlaying, StatePausedAtSegment:
			return StateAwaitingResponse
		}
	case EventStartRecording:
		if s == StateAwaitingResponse {
			return StateRecordingResponse
		}
	case EventStopRecording:
		if s == StateRecordingResponse {
			return StatePreviewingResponse
		}
	case EventDiscardRecording:
		if s == StatePreviewingResponse {
			return StateAwaitingResponse
		}
	case EventResponseSaved:
		if s == StatePreviewingResponse {
			return StatePlaying
		}
	case EventSkipResponse:
		if s == StateAwaitingResponse {
			return StatePlaying
		}
	case EventComplete:
		switch s {
		case StateAwaitingResponse, StatePreviewingResponse, StatePlaying:
			return StateCompleted
		}
	}
	return s
}
