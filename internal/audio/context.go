package audio

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Fixed output format. The remote speech generator produces mono
// 16-bit PCM at 24kHz, so the output context is created to match.
const (
	SampleRate = 24000
	Channels   = 1
	BitDepth   = 16
)

// ErrContextClosed is returned when playback is requested after Close.
var ErrContextClosed = errors.New("audio context is closed")

// Playback schedules decoded buffers for immediate playback. The
// returned channel is closed when playback ends naturally. No
// cancellation mid-playback is supported; callers that need to
// serialize playback must do so themselves.
type Playback interface {
	Play(buf *Buffer) (<-chan struct{}, error)
}

// Context owns the hardware audio output for the process. Exactly one
// Context should exist per process lifetime; the underlying device
// handle is lazily constructed on first playback and reused afterward.
type Context struct {
	once   sync.Once
	ctx    *oto.Context
	err    error
	closed bool
	mu     sync.Mutex
}

// NewContext returns an unopened playback context. The audio device is
// not touched until the first Play call.
func NewContext() *Context {
	return &Context{}
}

// acquire initializes the oto context on first use. Idempotent.
func (c *Context) acquire() (*oto.Context, error) {
	c.once.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			c.err = fmt.Errorf("failed to create audio context: %w", err)
			return
		}
		<-ready
		c.ctx = ctx
		log.Debug("audio context initialized", "sampleRate", SampleRate, "channels", Channels)
	})
	return c.ctx, c.err
}

// Play schedules buf for immediate playback and returns a channel that
// is closed when playback ends. If the device is in a suspended power
// state it is resumed first.
func (c *Context) Play(buf *Buffer) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrContextClosed
	}
	c.mu.Unlock()

	ctx, err := c.acquire()
	if err != nil {
		return nil, err
	}

	// Resume is a no-op when the context is already running.
	if err := ctx.Resume(); err != nil {
		log.Debug("audio context resume failed", "err", err)
	}

	// The reader must reference data for the whole playback; the oto
	// player reads from it incrementally.
	data := buf.PCM()
	player := ctx.NewPlayer(bytes.NewReader(data))
	player.Play()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Poll until the player drains. oto has no completion callback;
		// the interval is small relative to any speech clip.
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		_ = player.Close()
		runtime.KeepAlive(data)
	}()
	return done, nil
}

// Close marks the context closed for new playback. In-flight playback
// is unaffected; oto v3 contexts have no explicit close and are
// reclaimed when unreferenced.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

var _ Playback = (*Context)(nil)
