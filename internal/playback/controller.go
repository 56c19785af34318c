// internal/playback/controller.go
package playback

import (
	"sync"

	"github.com/Reflectix/CounselLab/internal/models"
)

// Media abstracts the seekable media element the controller drives.
// Implementations live on the client side of the session channel; the
// controller only issues commands. A nil Media makes every command a
// no-op, mirroring a not-yet-mounted player.
type Media interface {
	Play()
	Pause()
	SetPosition(seconds float64)
}

// Hooks are optional notifications fired while holding no locks other
// than the controller's own; handlers must not call back into the
// controller.
type Hooks struct {
	SegmentChanged    func(seg models.Segment, index int)
	PausePointEntered func(seg models.Segment, index int)
}

// Controller keeps playback state synchronized with the media clock and
// detects segment-boundary and pause-point crossings exactly once per
// entry. The segment list is immutable for the controller's lifetime
// and is expected to be sorted by start time ascending.
type Controller struct {
	mu       sync.Mutex
	segments []models.Segment
	media    Media
	hooks    Hooks

	state       State
	position    float64
	duration    float64
	playing     bool
	activeIndex int // -1 = no active segment
}

// NewController creates a controller over an ordered segment list.
func NewController(segments []models.Segment, media Media, hooks Hooks) *Controller {
	return &Controller{
		segments:    segments,
		media:       media,
		hooks:       hooks,
		state:       StateIdle,
		activeIndex: -1,
	}
}

// ActiveSegmentIndex resolves the segment containing position t by a
// linear scan: the first segment in list order whose [start, end)
// interval contains t wins. Overlapping segments are legal input; the
// first match is deliberately kept as the tie-break. Returns -1 when no
// segment contains t.
func ActiveSegmentIndex(segments []models.Segment, t float64) int {
	for i := range segments {
		if segments[i].Contains(t) {
			return i
		}
	}
	return -1
}

// OnTimeUpdate handles one tick of the media clock. The active segment
// is recomputed from scratch on every tick: after a seek the clock can
// report any position, so boundary crossings cannot be diffed. The
// authoritative tick always overwrites an optimistic seek position.
func (c *Controller) OnTimeUpdate(currentTime float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.position = currentTime

	idx := ActiveSegmentIndex(c.segments, currentTime)
	if idx == c.activeIndex {
		return
	}
	c.activeIndex = idx
	if idx < 0 {
		return
	}

	seg := c.segments[idx]
	if c.hooks.SegmentChanged != nil {
		c.hooks.SegmentChanged(seg, idx)
	}

	// Edge-triggered: fires once on entry, not on every tick inside.
	if seg.PausePoint {
		if c.media != nil {
			c.media.Pause()
		}
		c.playing = false
		c.state = Transition(c.state, Event{Type: EventEnterPausePoint})
		if c.hooks.PausePointEntered != nil {
			c.hooks.PausePointEntered(seg, idx)
		}
	}
}

// OnLoadedMetadata records the total media duration, used for
// progress-bar scaling only.
func (c *Controller) OnLoadedMetadata(duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duration = duration
}

// Seek sets the media position directly and updates the displayed
// position optimistically. No clamping: boundary handling belongs to
// the media engine.
func (c *Controller) Seek(targetTime float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seekLocked(targetTime)
}

func (c *Controller) seekLocked(targetTime float64) {
	if c.media != nil {
		c.media.SetPosition(targetTime)
	}
	c.position = targetTime
}

// Skip seeks relative to the current position; negative deltas skip
// backward.
func (c *Controller) Skip(deltaSeconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seekLocked(c.position + deltaSeconds)
}

// SelectSegment jumps to the segment at a trusted caller-provided
// index, bypassing the scan. Used by explicit Next/Previous navigation;
// it never triggers a pause-point transition. Out-of-range indexes are
// ignored.
func (c *Controller) SelectSegment(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.segments) {
		return
	}
	seg := c.segments[index]
	c.activeIndex = index
	c.seekLocked(seg.StartTime)
	if c.hooks.SegmentChanged != nil {
		c.hooks.SegmentChanged(seg, index)
	}
}

// TogglePlay flips between play and pause on the media element.
// Callers must not invoke it while a capture session is active; that
// guard lives in the session, not here.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.media == nil {
		return
	}
	if c.playing {
		c.media.Pause()
		c.playing = false
		c.state = Transition(c.state, Event{Type: EventPause})
	} else {
		c.media.Play()
		c.playing = true
		c.state = Transition(c.state, Event{Type: EventPlay})
	}
}

// Apply feeds a lifecycle event through the transition function. The
// session uses it for the capture-side transitions (start/stop/discard/
// saved/skip/complete). Returns the resulting state.
func (c *Controller) Apply(ev Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Transition(c.state, ev)
	return c.state
}

// Resume marks playback running again after a response is saved or
// skipped, issuing a play command to the media element.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.media != nil {
		c.media.Play()
	}
	c.playing = true
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position returns the last known playback position in seconds.
func (c *Controller) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Duration returns the total media duration, 0 before metadata load.
func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Playing reports whether the media element is currently playing.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// ActiveSegment returns the currently active segment, if any.
func (c *Controller) ActiveSegment() (models.Segment, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeIndex < 0 || c.activeIndex >= len(c.segments) {
		return models.Segment{}, -1, false
	}
	return c.segments[c.activeIndex], c.activeIndex, true
}

// Segments returns the controller's segment list.
func (c *Controller) Segments() []models.Segment {
	return c.segments
}
