// Package syncer reconciles the local word collection against the
// remote word store. The protocol is weak by design: pulls fetch the
// whole remote collection, pushes are one-way and best-effort, and the
// only conflict rule is that mastery never decreases from a merge.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/deutschmaster/internal/sheets"
	"github.com/example/deutschmaster/internal/words"
)

// RemoteClient is the subset of the sheets client the reconciler needs.
type RemoteClient interface {
	PullAll(ctx context.Context, url string) ([]words.Word, error)
	PushOne(ctx context.Context, url string, action sheets.Action, w words.Word) bool
}

// Storage is the local persistence the reconciler reads and replaces.
// Implementations must hand out snapshots; the reconciler never mutates
// a slice it did not build itself.
type Storage interface {
	Words() ([]words.Word, error)
	ReplaceAll(list []words.Word) error
	SetLastSyncedAt(marker string) error
}

// lastSyncedLayout is the human-readable marker format shown in the UI.
const lastSyncedLayout = "2006-01-02 15:04:05"

// Reconciler merges remote records into the local collection and
// pushes local-only records back.
//
// Sync is idempotent and safe to invoke repeatedly, but provides no
// internal mutual exclusion: serializing concurrent invocations is the
// caller's responsibility (the UI layer keeps a simple busy flag).
type Reconciler struct {
	client RemoteClient
	store  Storage
	now    func() time.Time
	pushes sync.WaitGroup
}

// New creates a reconciler over the given remote client and storage.
func New(client RemoteClient, store Storage) *Reconciler {
	return &Reconciler{
		client: client,
		store:  store,
		now:    time.Now,
	}
}

// Sync runs one pull/merge/push cycle against url.
//
// Any pull error aborts the attempt entirely: no merge or push occurs
// and the local collection is left untouched. Pushes are dispatched
// fire-and-forget; their completion is unordered relative to Sync
// returning, and failures are logged, never retried within this cycle.
// A later cycle naturally reattempts, since an unlanded record still
// won't appear in the next pull.
func (r *Reconciler) Sync(ctx context.Context, url string) error {
	remote, err := r.client.PullAll(ctx, url)
	if err != nil {
		log.Warn("sync aborted: pull failed", "err", err)
		return fmt.Errorf("pull failed: %w", err)
	}

	local, err := r.store.Words()
	if err != nil {
		log.Warn("sync aborted: cannot read local collection", "err", err)
		return fmt.Errorf("failed to read local collection: %w", err)
	}

	merged := merge(local, remote)

	// The push queue is computed from the pre-merge local collection:
	// anything the fresh remote set has no counterpart for.
	queue := pushQueue(local, remote)
	// Pushes outlive the caller's interest in this sync.
	pushCtx := context.WithoutCancel(ctx)
	for _, w := range queue {
		w := w
		r.pushes.Add(1)
		go func() {
			defer r.pushes.Done()
			if !r.client.PushOne(pushCtx, url, sheets.ActionAddWord, w) {
				log.Debug("push did not land, will retry on a later sync", "word", w.Word)
			}
		}()
	}

	words.SortByCreatedDesc(merged)
	if err := r.store.ReplaceAll(merged); err != nil {
		log.Warn("failed to persist merged collection", "err", err)
		return fmt.Errorf("failed to persist merged collection: %w", err)
	}
	if err := r.store.SetLastSyncedAt(r.now().Format(lastSyncedLayout)); err != nil {
		log.Warn("failed to record sync marker", "err", err)
	}

	log.Info("sync complete",
		"local", len(local), "remote", len(remote),
		"merged", len(merged), "pushed", len(queue))
	return nil
}

// Delete removes a word from the local collection and dispatches a
// best-effort DELETE_WORD push. The push is not awaited or confirmed;
// deletion is a local-only decision.
func (r *Reconciler) Delete(ctx context.Context, url string, w words.Word) error {
	local, err := r.store.Words()
	if err != nil {
		return fmt.Errorf("failed to read local collection: %w", err)
	}

	kept := make([]words.Word, 0, len(local))
	for _, lw := range local {
		if lw.ID != w.ID {
			kept = append(kept, lw)
		}
	}
	if err := r.store.ReplaceAll(kept); err != nil {
		return fmt.Errorf("failed to persist collection: %w", err)
	}

	pushCtx := context.WithoutCancel(ctx)
	r.pushes.Add(1)
	go func() {
		defer r.pushes.Done()
		r.client.PushOne(pushCtx, url, sheets.ActionDeleteWord, w)
	}()
	return nil
}

// PushProgress dispatches a best-effort UPDATE_PROGRESS push carrying
// only the word's identity and mastery score.
func (r *Reconciler) PushProgress(ctx context.Context, url string, w words.Word) {
	pushCtx := context.WithoutCancel(ctx)
	r.pushes.Add(1)
	go func() {
		defer r.pushes.Done()
		r.client.PushOne(pushCtx, url, sheets.ActionUpdateProgress, w)
	}()
}

// Wait blocks until all dispatched pushes have finished. Intended for
// process teardown so fire-and-forget requests actually leave before
// exit; it gives no guarantee the remote applied anything.
func (r *Reconciler) Wait() {
	r.pushes.Wait()
}

// merge folds remote records into a copy of the local collection.
//
// Matching is by ID equality or case-insensitive word equality, first
// match wins. An unmatched remote record is appended verbatim. On a
// match only the mastery score can change, and only upward: local
// descriptive content is authoritative, reflecting that corrections
// made during study sessions always win over the remote copy.
func merge(local, remote []words.Word) []words.Word {
	merged := make([]words.Word, len(local))
	copy(merged, local)

	for _, rw := range remote {
		i := words.FindMatch(merged, rw)
		if i < 0 {
			merged = append(merged, rw)
			continue
		}
		if rw.MasteryLevel > merged[i].MasteryLevel {
			merged[i].MasteryLevel = rw.MasteryLevel
		}
	}
	return merged
}

// pushQueue returns the local records with no remote counterpart under
// the same ID-or-word predicate used by merge.
func pushQueue(local, remote []words.Word) []words.Word {
	var queue []words.Word
	for _, lw := range local {
		if words.FindMatch(remote, lw) < 0 {
			queue = append(queue, lw)
		}
	}
	return queue
}
