package audio

import (
	"sync"
)

// MockPlayback implements Playback for tests and for environments
// without an audio device (CI). Playback completes immediately unless
// a hold channel is installed.
type MockPlayback struct {
	mu     sync.Mutex
	played []*Buffer
	err    error
	hold   chan struct{}
}

// NewMockPlayback returns a mock that records every played buffer.
func NewMockPlayback() *MockPlayback {
	return &MockPlayback{}
}

// Play records buf and returns an already-completed (or held) signal.
func (m *MockPlayback) Play(buf *Buffer) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.played = append(m.played, buf)

	done := make(chan struct{})
	if m.hold != nil {
		hold := m.hold
		go func() {
			<-hold
			close(done)
		}()
	} else {
		close(done)
	}
	return done, nil
}

// Played returns a copy of the buffers played so far.
func (m *MockPlayback) Played() []*Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Buffer, len(m.played))
	copy(out, m.played)
	return out
}

// SetError makes subsequent Play calls fail with err.
func (m *MockPlayback) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Hold delays completion of subsequent playback until the returned
// function is called.
func (m *MockPlayback) Hold() (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.hold = ch
	return func() { close(ch) }
}

var _ Playback = (*MockPlayback)(nil)
