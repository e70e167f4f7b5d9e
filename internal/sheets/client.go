// Package sheets is a thin client for the remote word store, a Google
// Sheets Apps Script endpoint with a loose JSON contract: GET returns
// the whole collection, POST applies one action without a readable
// response.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/example/deutschmaster/internal/words"
)

// Action identifies a one-way write against the remote store.
type Action string

// Supported write actions.
const (
	ActionAddWord        Action = "ADD_WORD"
	ActionUpdateProgress Action = "UPDATE_PROGRESS"
	ActionDeleteWord     Action = "DELETE_WORD"
)

// payload is the POST body envelope understood by the Apps Script.
type payload struct {
	Action    Action `json:"action"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Client talks to a remote word store endpoint.
type Client struct {
	http *http.Client
	now  func() time.Time
}

// NewClient returns a client using httpClient, or a default client
// with a 15 second timeout when nil.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{http: httpClient, now: time.Now}
}

// PullAll fetches the full remote collection.
//
// A cache-busting _t parameter defeats intermediary caching. Transport
// failures and non-2xx statuses are returned as errors; a response
// body that is not a JSON array yields an empty collection and no
// error. That fail-open policy means transient remote misbehavior
// never blocks a local session. Each element is coerced defensively:
// missing fields get defaults rather than failing the pull.
func (c *Client) PullAll(ctx context.Context, endpoint string) ([]words.Word, error) {
	if endpoint == "" {
		return nil, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid sheet url: %w", err)
	}
	q := u.Query()
	q.Set("_t", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pull request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote word store returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pull response: %w", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		// Not a JSON array: treat as "no remote data", not an error.
		log.Warn("remote word store response is not a JSON array", "bytes", len(body))
		return []words.Word{}, nil
	}

	list := make([]words.Word, 0, len(raw))
	for _, item := range raw {
		list = append(list, coerceWord(item, c.now()))
	}
	return list, nil
}

// PushOne submits a single best-effort write to the remote store.
//
// The remote response body is never inspected, so a true return means
// only "request was dispatched", never "remote applied it". Transport
// errors are logged and reported as false; they are never propagated
// as user-facing errors.
func (c *Client) PushOne(ctx context.Context, endpoint string, action Action, w words.Word) bool {
	if endpoint == "" {
		return false
	}

	body, err := json.Marshal(payload{
		Action:    action,
		Data:      actionData(action, w),
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		log.Warn("failed to encode push payload", "action", action, "err", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Warn("failed to build push request", "action", action, "err", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("push request failed", "action", action, "word", w.Word, "err", err)
		return false
	}
	// One-way semantics: drain and close without reading the body.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	log.Debug("push dispatched", "action", action, "word", w.Word)
	return true
}

// actionData serializes only the minimal field subset relevant to the
// given action.
func actionData(action Action, w words.Word) any {
	switch action {
	case ActionUpdateProgress:
		return map[string]any{
			"wordId":       w.ID,
			"word":         w.Word,
			"masteryLevel": w.MasteryLevel,
		}
	case ActionDeleteWord:
		return map[string]any{
			"id":   w.ID,
			"word": w.Word,
		}
	default: // ActionAddWord
		return map[string]any{
			"id":           w.ID,
			"word":         w.Word,
			"gender":       w.Gender,
			"meaning":      w.Meaning,
			"ipa":          w.IPA,
			"partOfSpeech": w.PartOfSpeech,
			"plural":       w.Plural,
			"createdAt":    w.CreatedAt,
			"masteryLevel": w.MasteryLevel,
		}
	}
}

// coerceWord maps one loose remote object onto a Word, defaulting every
// missing or mistyped field so a single malformed row never fails the
// whole pull.
func coerceWord(item map[string]any, now time.Time) words.Word {
	w := words.Word{
		ID:           stringField(item, "id"),
		Word:         stringField(item, "word"),
		Gender:       stringField(item, "gender"),
		Meaning:      stringField(item, "meaning"),
		IPA:          stringField(item, "ipa"),
		PartOfSpeech: stringField(item, "partOfSpeech"),
		Plural:       stringField(item, "plural"),
		Synonyms:     stringSliceField(item, "synonyms"),
		Examples:     exampleSliceField(item, "examples"),
		CreatedAt:    intField(item, "createdAt", now.UnixMilli()),
		MasteryLevel: int(intField(item, "masteryLevel", 0)),
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Gender == "" {
		w.Gender = words.GenderNone
	}
	if w.PartOfSpeech == "" {
		w.PartOfSpeech = "noun"
	}
	return w
}

func stringField(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return s
}

// intField returns the field as an integer, or fallback when it is
// absent or not numeric. JSON numbers arrive as float64.
func intField(item map[string]any, key string, fallback int64) int64 {
	switch v := item[key].(type) {
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return int64(n)
		}
	}
	return fallback
}

func stringSliceField(item map[string]any, key string) []string {
	raw, ok := item[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func exampleSliceField(item map[string]any, key string) []words.Example {
	raw, ok := item[key].([]any)
	if !ok {
		return []words.Example{}
	}
	out := make([]words.Example, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, words.Example{
			German:     stringField(m, "german"),
			Vietnamese: stringField(m, "vietnamese"),
		})
	}
	return out
}
