// internal/session/remote_device.go
package session

import (
	"sync"

	"github.com/Reflectix/CounselLab/internal/capture"
)

// remoteDevice bridges client capture hardware into the server-side
// recorder. The browser performs the actual getUserMedia call and
// streams encoded chunks over the session channel; Inject feeds them
// into the active stream. Permission state is reported by the client
// before recording starts.
type remoteDevice struct {
	mu               sync.Mutex
	permissionDenied bool
	stream           *remoteStream
	tracks           []*remoteTrack // every track ever issued, for leak accounting
}

func newRemoteDevice() *remoteDevice {
	return &remoteDevice{}
}

// SetPermission records the client-reported device permission state.
func (d *remoteDevice) SetPermission(granted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.permissionDenied = !granted
}

// Open implements capture.Device.
func (d *remoteDevice) Open(c capture.Constraints) (capture.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.permissionDenied {
		return nil, capture.ErrPermissionDenied
	}

	var tracks []*remoteTrack
	if c.Audio {
		tracks = append(tracks, &remoteTrack{kind: "audio"})
	}
	if c.Video {
		tracks = append(tracks, &remoteTrack{kind: "video"})
	}

	s := &remoteStream{tracks: tracks}
	d.stream = s
	d.tracks = append(d.tracks, tracks...)
	return s, nil
}

// Inject delivers one client-recorded chunk to the active stream.
// Chunks arriving with no active stream are dropped.
func (d *remoteDevice) Inject(data []byte) {
	d.mu.Lock()
	s := d.stream
	d.mu.Unlock()

	if s != nil {
		s.deliver(data)
	}
}

// LiveTrackCount reports how many issued tracks were never stopped.
// Zero between capture sessions is the invariant the teardown paths
// must hold.
func (d *remoteDevice) LiveTrackCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	live := 0
	for _, t := range d.tracks {
		if !t.Stopped() {
			live++
		}
	}
	return live
}

// remoteTrack mirrors one hardware track held open on the client.
type remoteTrack struct {
	mu      sync.Mutex
	kind    string
	stopped bool
}

func (t *remoteTrack) Kind() string {
	return t.kind
}

func (t *remoteTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *remoteTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// remoteStream implements capture.Stream over injected chunks.
type remoteStream struct {
	mu      sync.Mutex
	started bool
	onChunk func([]byte)
	tracks  []*remoteTrack
}

func (s *remoteStream) Start(onChunk func(data []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChunk = onChunk
	s.started = true
}

func (s *remoteStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
}

func (s *remoteStream) Tracks() []capture.Track {
	out := make([]capture.Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

func (s *remoteStream) deliver(data []byte) {
	s.mu.Lock()
	started, cb := s.started, s.onChunk
	s.mu.Unlock()

	if started && cb != nil {
		cb(data)
	}
}
