package speech

import (
	"context"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
)

// Fallback voices text through a best-effort local channel when the
// remote generator is unavailable. It must never fail loudly; a study
// session degrades to silence, not to an error.
type Fallback interface {
	Say(ctx context.Context, text string)
}

// EspeakFallback shells out to espeak-ng, which ships a serviceable
// German voice on most Linux distributions.
type EspeakFallback struct {
	binary  string
	voice   string
	timeout time.Duration
}

// NewEspeakFallback returns a fallback using the espeak-ng binary from
// PATH.
func NewEspeakFallback() *EspeakFallback {
	return &EspeakFallback{
		binary:  "espeak-ng",
		voice:   "de",
		timeout: 10 * time.Second,
	}
}

// Say speaks text synchronously. Every failure mode, including a
// missing binary, is logged and absorbed.
func (f *EspeakFallback) Say(ctx context.Context, text string) {
	if _, err := exec.LookPath(f.binary); err != nil {
		log.Debug("fallback speech binary not found", "binary", f.binary)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary, "-v", f.voice, text)
	if err := cmd.Run(); err != nil {
		log.Debug("fallback speech failed", "binary", f.binary, "err", err)
	}
}

// NopFallback is a Fallback that does nothing. Used where local audio
// output is unavailable.
type NopFallback struct{}

func (NopFallback) Say(context.Context, string) {}

var (
	_ Fallback = (*EspeakFallback)(nil)
	_ Fallback = NopFallback{}
)
