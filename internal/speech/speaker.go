package speech

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/deutschmaster/internal/audio"
)

const (
	// maxAttempts counts every synthesis try, the first included.
	maxAttempts = 3
	// defaultRetryBase is scaled linearly per failed attempt.
	defaultRetryBase = time.Second
)

// Speaker voices text with a cache-first, retry-then-fallback strategy:
// a cached pronunciation plays immediately, a miss is fetched with up
// to three attempts, and when fetching or decoding fails the local
// fallback takes over. Callers always observe a start notification
// followed by exactly one end notification, whatever path was taken.
type Speaker struct {
	cache     *Cache
	disk      *DiskCache
	generator Generator
	fallback  Fallback
	playback  audio.Playback

	retryBase time.Duration
	sleep     func(ctx context.Context, d time.Duration)
}

// Option configures a Speaker.
type Option func(*Speaker)

// WithRetryBase overrides the base delay between synthesis attempts.
func WithRetryBase(d time.Duration) Option {
	return func(s *Speaker) { s.retryBase = d }
}

// WithDiskCache persists fetched pronunciations across sessions.
func WithDiskCache(d *DiskCache) Option {
	return func(s *Speaker) { s.disk = d }
}

// NewSpeaker wires a speaker over the given collaborators.
func NewSpeaker(cache *Cache, generator Generator, fallback Fallback, playback audio.Playback, opts ...Option) *Speaker {
	s := &Speaker{
		cache:     cache,
		generator: generator,
		fallback:  fallback,
		playback:  playback,
		retryBase: defaultRetryBase,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak voices text, blocking until playback or fallback finishes.
//
// onStart fires before any work, onEnd fires exactly once when the
// call is over. Either callback may be nil. Speak itself never returns
// an error: every failure degrades to the fallback voice.
func (s *Speaker) Speak(ctx context.Context, text string, onStart, onEnd func()) {
	if onStart != nil {
		onStart()
	}
	if onEnd != nil {
		defer onEnd()
	}

	if buf := s.cache.Get(text); buf != nil {
		log.Debug("pronunciation cache hit", "text", text)
		s.play(ctx, text, buf)
		return
	}

	if s.disk != nil {
		if pcm := s.disk.Get(text); pcm != nil {
			if buf, err := audio.Decode(pcm, audio.SampleRate, audio.Channels); err == nil {
				log.Debug("pronunciation disk hit", "text", text)
				s.cache.Put(text, buf)
				s.play(ctx, text, buf)
				return
			}
		}
	}

	buf := s.fetch(ctx, text)
	if buf == nil {
		s.fallback.Say(ctx, text)
		return
	}

	s.cache.Put(text, buf)
	if s.disk != nil {
		s.disk.Put(text, buf.PCM())
	}
	s.play(ctx, text, buf)
}

// fetch runs the retry loop against the remote generator and decodes
// the result. A nil return means every avenue failed and the caller
// should fall back.
func (s *Speaker) fetch(ctx context.Context, text string) *audio.Buffer {
	var encoded string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var err error
		encoded, err = s.generator.Synthesize(ctx, text)
		if err == nil {
			break
		}
		log.Warn("speech synthesis attempt failed",
			"text", text, "attempt", attempt, "err", err)
		if attempt == maxAttempts {
			return nil
		}
		// Delays grow linearly: base after the first failure, twice
		// the base after the second.
		s.sleep(ctx, time.Duration(attempt)*s.retryBase)
		if ctx.Err() != nil {
			return nil
		}
	}

	pcm, err := audio.DecodeBase64(encoded)
	if err != nil {
		log.Warn("speech payload is not valid base64", "text", text, "err", err)
		return nil
	}
	buf, err := audio.Decode(pcm, audio.SampleRate, audio.Channels)
	if err != nil {
		log.Warn("speech payload did not decode", "text", text, "err", err)
		return nil
	}
	return buf
}

// play schedules buf and waits for completion. Playback errors degrade
// to the fallback voice so the caller still hears something.
func (s *Speaker) play(ctx context.Context, text string, buf *audio.Buffer) {
	done, err := s.playback.Play(buf)
	if err != nil {
		log.Warn("playback failed", "text", text, "err", err)
		s.fallback.Say(ctx, text)
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
