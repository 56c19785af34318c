// internal/capture/recorder_test.go
package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrack struct {
	kind    string
	stopped bool
}

func (t *fakeTrack) Kind() string { return t.kind }
func (t *fakeTrack) Stop()        { t.stopped = true }

type fakeStream struct {
	tracks  []*fakeTrack
	onChunk func([]byte)
	stopped bool
}

func (s *fakeStream) Start(onChunk func(data []byte)) { s.onChunk = onChunk }
func (s *fakeStream) Stop()                           { s.stopped = true }
func (s *fakeStream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

type fakeDevice struct {
	denyPermission bool
	openErr        error
	stream         *fakeStream
	opens          int
}

func (d *fakeDevice) Open(c Constraints) (Stream, error) {
	d.opens++
	if d.denyPermission {
		return nil, ErrPermissionDenied
	}
	if d.openErr != nil {
		return nil, d.openErr
	}

	tracks := []*fakeTrack{{kind: "audio"}}
	if c.Video {
		tracks = append(tracks, &fakeTrack{kind: "video"})
	}
	d.stream = &fakeStream{tracks: tracks}
	return d.stream, nil
}

func TestConstraintsFor(t *testing.T) {
	video := ConstraintsFor("video")
	assert.True(t, video.Audio)
	assert.True(t, video.Video)
	assert.Equal(t, DefaultVideoWidth, video.VideoWidth)
	assert.Equal(t, DefaultVideoHeight, video.VideoHeight)

	audio := ConstraintsFor("audio")
	assert.True(t, audio.Audio)
	assert.False(t, audio.Video)
}

func TestRecorderStart(t *testing.T) {
	t.Run("rejects unknown kinds", func(t *testing.T) {
		r := NewRecorder(&fakeDevice{})
		err := r.Start("screenshare")
		require.Error(t, err)
		assert.Equal(t, PhaseIdle, r.Phase())
	})

	t.Run("permission denial leaves the recorder idle", func(t *testing.T) {
		device := &fakeDevice{denyPermission: true}
		r := NewRecorder(device)

		err := r.Start("audio")
		require.ErrorIs(t, err, ErrPermissionDenied)
		assert.Equal(t, PhaseIdle, r.Phase())

		// No auto retry: the device was asked exactly once.
		assert.Equal(t, 1, device.opens)

		// After the user grants access, a fresh attempt works.
		device.denyPermission = false
		require.NoError(t, r.Start("audio"))
		assert.Equal(t, PhaseRecording, r.Phase())
	})

	t.Run("rejects a second start while recording", func(t *testing.T) {
		r := NewRecorder(&fakeDevice{})
		require.NoError(t, r.Start("audio"))
		assert.Error(t, r.Start("audio"))
	})
}

func TestRecorderStop(t *testing.T) {
	t.Run("concatenates chunks into a clip", func(t *testing.T) {
		device := &fakeDevice{}
		r := NewRecorder(device)
		require.NoError(t, r.Start("video"))

		device.stream.onChunk([]byte("abc"))
		device.stream.onChunk([]byte("def"))

		clip, err := r.Stop()
		require.NoError(t, err)
		assert.Equal(t, []byte("abcdef"), clip.Data)
		assert.Equal(t, "video/webm", clip.MIMEType)
		assert.Equal(t, "video", clip.Kind)
		assert.Equal(t, 6, clip.Size)
		assert.Equal(t, PhasePreviewing, r.Phase())
	})

	t.Run("audio clips get the audio mime type", func(t *testing.T) {
		device := &fakeDevice{}
		r := NewRecorder(device)
		require.NoError(t, r.Start("audio"))

		clip, err := r.Stop()
		require.NoError(t, err)
		assert.Equal(t, "audio/webm", clip.MIMEType)
	})

	t.Run("stopping before any chunk yields an empty, saveable clip", func(t *testing.T) {
		device := &fakeDevice{}
		r := NewRecorder(device)
		require.NoError(t, r.Start("audio"))

		clip, err := r.Stop()
		require.NoError(t, err)
		assert.Empty(t, clip.Data)
		assert.Equal(t, 0, clip.Size)
		assert.NotNil(t, r.Clip())
	})

	t.Run("stops every device track", func(t *testing.T) {
		device := &fakeDevice{}
		r := NewRecorder(device)
		require.NoError(t, r.Start("video"))

		_, err := r.Stop()
		require.NoError(t, err)
		for _, track := range device.stream.tracks {
			assert.True(t, track.stopped, "track %s not stopped", track.kind)
		}
	})

	t.Run("chunks arriving after stop are dropped", func(t *testing.T) {
		device := &fakeDevice{}
		r := NewRecorder(device)
		require.NoError(t, r.Start("audio"))

		onChunk := device.stream.onChunk
		onChunk([]byte("abc"))
		clip, err := r.Stop()
		require.NoError(t, err)

		onChunk([]byte("late"))
		assert.Equal(t, []byte("abc"), clip.Data)
	})

	t.Run("errors when not recording", func(t *testing.T) {
		r := NewRecorder(&fakeDevice{})
		_, err := r.Stop()
		assert.Error(t, err)
	})
}

func TestRecorderDiscard(t *testing.T) {
	t.Run("drops the previewed clip", func(t *testing.T) {
		device := &fakeDevice{}
		r := NewRecorder(device)
		require.NoError(t, r.Start("audio"))
		device.stream.onChunk([]byte("abc"))
		_, err := r.Stop()
		require.NoError(t, err)

		r.Discard()
		assert.Equal(t, PhaseIdle, r.Phase())
		assert.Nil(t, r.Clip())

		// The slot is free for a new recording.
		require.NoError(t, r.Start("audio"))
	})

	t.Run("cancels an in-flight recording and stops live tracks", func(t *testing.T) {
		device := &fakeDevice{}
		r := NewRecorder(device)
		require.NoError(t, r.Start("video"))
		device.stream.onChunk([]byte("abc"))

		r.Discard()
		assert.Equal(t, PhaseIdle, r.Phase())
		assert.True(t, device.stream.stopped)
		for _, track := range device.stream.tracks {
			assert.True(t, track.stopped, "track %s not stopped", track.kind)
		}

		require.NoError(t, r.Start("audio"))
	})
}

func TestRecorderClip(t *testing.T) {
	device := &fakeDevice{}
	r := NewRecorder(device)

	assert.Nil(t, r.Clip(), "no clip while idle")

	require.NoError(t, r.Start("audio"))
	assert.Nil(t, r.Clip(), "no clip while recording")

	device.stream.onChunk([]byte("abc"))
	_, err := r.Stop()
	require.NoError(t, err)
	require.NotNil(t, r.Clip())

	// The previewed clip survives repeated reads, as a failed save
	// leaves it in place for retry.
	assert.Equal(t, r.Clip(), r.Clip())
}

func TestRecorderClose(t *testing.T) {
	t.Run("stops live tracks mid recording", func(t *testing.T) {
		device := &fakeDevice{}
		r := NewRecorder(device)
		require.NoError(t, r.Start("video"))

		r.Close()
		assert.Equal(t, PhaseIdle, r.Phase())
		for _, track := range device.stream.tracks {
			assert.True(t, track.stopped)
		}
	})

	t.Run("safe to call repeatedly", func(t *testing.T) {
		r := NewRecorder(&fakeDevice{})
		r.Close()
		r.Close()
		assert.Equal(t, PhaseIdle, r.Phase())
	})
}
