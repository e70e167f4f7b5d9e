package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoAudio is returned when the remote generator answered without an
// audio payload.
var ErrNoAudio = errors.New("speech response carried no audio data")

// Generator produces base64-encoded raw PCM for a piece of text. The
// encoding matches the playback format: 24kHz mono signed 16-bit.
type Generator interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// HTTPGenerator calls a remote speech endpoint. Requests are rate
// limited so rapid-fire study sessions cannot trip remote quotas.
type HTTPGenerator struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
}

type synthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
	Error        string `json:"error,omitempty"`
}

// NewHTTPGenerator returns a generator for the given endpoint. A nil
// httpClient gets a 30 second timeout; synthesis latency on cold
// remote models runs into seconds.
func NewHTTPGenerator(endpoint string, httpClient *http.Client) *HTTPGenerator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGenerator{
		endpoint: endpoint,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

// Synthesize requests speech for text and returns the base64 payload.
func (g *HTTPGenerator) Synthesize(ctx context.Context, text string) (string, error) {
	if g.endpoint == "" {
		return "", errors.New("no speech endpoint configured")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait interrupted: %w", err)
	}

	body, err := json.Marshal(synthesizeRequest{Text: text, Language: "de"})
	if err != nil {
		return "", fmt.Errorf("failed to encode speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("speech endpoint returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read speech response: %w", err)
	}

	var sr synthesizeResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return "", fmt.Errorf("malformed speech response: %w", err)
	}
	if sr.Error != "" {
		return "", fmt.Errorf("speech endpoint error: %s", sr.Error)
	}
	if sr.AudioContent == "" {
		return "", ErrNoAudio
	}
	return sr.AudioContent, nil
}

var _ Generator = (*HTTPGenerator)(nil)
