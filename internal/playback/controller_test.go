// internal/playback/controller_test.go
package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reflectix/CounselLab/internal/models"
)

// fakeMedia records the commands the controller issues.
type fakeMedia struct {
	commands  []string
	positions []float64
}

func (m *fakeMedia) Play()  { m.commands = append(m.commands, "play") }
func (m *fakeMedia) Pause() { m.commands = append(m.commands, "pause") }
func (m *fakeMedia) SetPosition(seconds float64) {
	m.commands = append(m.commands, "set_position")
	m.positions = append(m.positions, seconds)
}

func end(t float64) *float64 { return &t }

// threeSegments is the canonical layout used across these tests:
// [0,60), [60,120) with a pause point, [120,inf).
func threeSegments() []models.Segment {
	return []models.Segment{
		{ID: "s1", StartTime: 0, EndTime: end(60)},
		{ID: "s2", StartTime: 60, EndTime: end(120), PausePoint: true},
		{ID: "s3", StartTime: 120},
	}
}

func TestActiveSegmentIndex(t *testing.T) {
	segs := threeSegments()

	t.Run("position inside a bounded segment", func(t *testing.T) {
		assert.Equal(t, 0, ActiveSegmentIndex(segs, 30))
		assert.Equal(t, 1, ActiveSegmentIndex(segs, 75))
	})

	t.Run("boundaries are half open", func(t *testing.T) {
		// End of one segment is the start of the next.
		assert.Equal(t, 1, ActiveSegmentIndex(segs, 60))
		assert.Equal(t, 2, ActiveSegmentIndex(segs, 120))
	})

	t.Run("open ended segment contains everything after its start", func(t *testing.T) {
		assert.Equal(t, 2, ActiveSegmentIndex(segs, 150))
		assert.Equal(t, 2, ActiveSegmentIndex(segs, 10000))
	})

	t.Run("before the first segment", func(t *testing.T) {
		before := []models.Segment{{StartTime: 10, EndTime: end(20)}}
		assert.Equal(t, -1, ActiveSegmentIndex(before, 5))
	})

	t.Run("overlapping segments resolve to the first match", func(t *testing.T) {
		overlap := []models.Segment{
			{ID: "a", StartTime: 0, EndTime: end(60)},
			{ID: "b", StartTime: 30, EndTime: end(90)},
		}
		assert.Equal(t, 0, ActiveSegmentIndex(overlap, 45))
		assert.Equal(t, 1, ActiveSegmentIndex(overlap, 70))
	})

	t.Run("empty list", func(t *testing.T) {
		assert.Equal(t, -1, ActiveSegmentIndex(nil, 0))
	})
}

func TestOnTimeUpdatePausePoint(t *testing.T) {
	t.Run("entering a pause point pauses exactly once", func(t *testing.T) {
		media := &fakeMedia{}
		var pauses int
		c := NewController(threeSegments(), media, Hooks{
			PausePointEntered: func(models.Segment, int) { pauses++ },
		})

		c.OnTimeUpdate(30)
		assert.Equal(t, 0, pauses)

		c.OnTimeUpdate(61)
		assert.Equal(t, 1, pauses)
		assert.Equal(t, StateAwaitingResponse, c.State())
		assert.False(t, c.Playing())
		assert.Equal(t, []string{"pause"}, media.commands)

		// Further ticks inside the same segment do not refire.
		c.OnTimeUpdate(70)
		c.OnTimeUpdate(119)
		assert.Equal(t, 1, pauses)
		assert.Equal(t, []string{"pause"}, media.commands)
	})

	t.Run("reentering a pause point fires again", func(t *testing.T) {
		media := &fakeMedia{}
		var pauses int
		c := NewController(threeSegments(), media, Hooks{
			PausePointEntered: func(models.Segment, int) { pauses++ },
		})

		c.OnTimeUpdate(75)
		c.OnTimeUpdate(30) // back out
		c.OnTimeUpdate(75) // and in again
		assert.Equal(t, 2, pauses)
	})

	t.Run("seek across a boundary is detected on the next tick", func(t *testing.T) {
		media := &fakeMedia{}
		var pauseSeg models.Segment
		c := NewController(threeSegments(), media, Hooks{
			PausePointEntered: func(seg models.Segment, _ int) { pauseSeg = seg },
		})

		c.OnTimeUpdate(10)
		c.Seek(75)
		// The authoritative tick after the seek drives detection.
		c.OnTimeUpdate(75)
		assert.Equal(t, "s2", pauseSeg.ID)
	})

	t.Run("segment without pause point does not pause", func(t *testing.T) {
		media := &fakeMedia{}
		var changes []int
		c := NewController(threeSegments(), media, Hooks{
			SegmentChanged: func(_ models.Segment, idx int) { changes = append(changes, idx) },
		})

		c.OnTimeUpdate(140)
		assert.Equal(t, []int{2}, changes)
		assert.NotContains(t, media.commands, "pause")
	})

	t.Run("tick overwrites optimistic seek position", func(t *testing.T) {
		c := NewController(threeSegments(), &fakeMedia{}, Hooks{})
		c.Seek(200)
		assert.Equal(t, 200.0, c.Position())
		c.OnTimeUpdate(42)
		assert.Equal(t, 42.0, c.Position())
	})
}

func TestSeekAndSkip(t *testing.T) {
	t.Run("seek issues a position command", func(t *testing.T) {
		media := &fakeMedia{}
		c := NewController(threeSegments(), media, Hooks{})

		c.Seek(90)
		require.Len(t, media.positions, 1)
		assert.Equal(t, 90.0, media.positions[0])
		assert.Equal(t, 90.0, c.Position())
	})

	t.Run("skip is relative to the current position", func(t *testing.T) {
		media := &fakeMedia{}
		c := NewController(threeSegments(), media, Hooks{})

		c.OnTimeUpdate(50)
		c.Skip(10)
		assert.Equal(t, 60.0, c.Position())
		c.Skip(-30)
		assert.Equal(t, 30.0, c.Position())
	})

	t.Run("no clamping on out of range seeks", func(t *testing.T) {
		media := &fakeMedia{}
		c := NewController(threeSegments(), media, Hooks{})
		c.OnTimeUpdate(5)
		c.Skip(-10)
		assert.Equal(t, -5.0, c.Position())
	})

	t.Run("nil media makes commands no-ops", func(t *testing.T) {
		c := NewController(threeSegments(), nil, Hooks{})
		c.Seek(30)
		c.Skip(10)
		c.TogglePlay()
		c.Resume()
		// Position still tracks optimistically, nothing panics.
		assert.Equal(t, 40.0, c.Position())
		assert.Equal(t, StateIdle, c.State())
	})
}

func TestSelectSegment(t *testing.T) {
	t.Run("seeks to the segment start", func(t *testing.T) {
		media := &fakeMedia{}
		var changed []int
		c := NewController(threeSegments(), media, Hooks{
			SegmentChanged: func(_ models.Segment, idx int) { changed = append(changed, idx) },
		})

		c.SelectSegment(2)
		assert.Equal(t, 120.0, c.Position())
		assert.Equal(t, []int{2}, changed)

		seg, idx, ok := c.ActiveSegment()
		require.True(t, ok)
		assert.Equal(t, 2, idx)
		assert.Equal(t, "s3", seg.ID)
	})

	t.Run("does not trigger a pause transition even on pause points", func(t *testing.T) {
		media := &fakeMedia{}
		c := NewController(threeSegments(), media, Hooks{})

		c.SelectSegment(1)
		assert.NotEqual(t, StateAwaitingResponse, c.State())
		assert.NotContains(t, media.commands, "pause")
	})

	t.Run("out of range indexes are ignored", func(t *testing.T) {
		c := NewController(threeSegments(), &fakeMedia{}, Hooks{})
		c.SelectSegment(-1)
		c.SelectSegment(3)
		_, _, ok := c.ActiveSegment()
		assert.False(t, ok)
	})
}

func TestTogglePlay(t *testing.T) {
	media := &fakeMedia{}
	c := NewController(threeSegments(), media, Hooks{})

	c.TogglePlay()
	assert.True(t, c.Playing())
	assert.Equal(t, StatePlaying, c.State())

	c.TogglePlay()
	assert.False(t, c.Playing())
	assert.Equal(t, StatePausedAtSegment, c.State())

	assert.Equal(t, []string{"play", "pause"}, media.commands)
}

func TestResume(t *testing.T) {
	media := &fakeMedia{}
	c := NewController(threeSegments(), media, Hooks{})

	c.OnTimeUpdate(75) // pause point
	require.False(t, c.Playing())

	c.Apply(Event{Type: EventSkipResponse})
	c.Resume()
	assert.True(t, c.Playing())
	assert.Equal(t, StatePlaying, c.State())
	assert.Equal(t, []string{"pause", "play"}, media.commands)
}
