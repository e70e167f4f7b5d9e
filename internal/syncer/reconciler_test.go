package syncer

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/example/deutschmaster/internal/sheets"
	"github.com/example/deutschmaster/internal/words"
)

// fakeRemote is an in-memory RemoteClient recording every push.
type fakeRemote struct {
	mu      sync.Mutex
	remote  []words.Word
	pullErr error
	pushed  []pushCall
	pushOK  bool
}

type pushCall struct {
	action sheets.Action
	word   words.Word
}

func newFakeRemote(remote []words.Word) *fakeRemote {
	return &fakeRemote{remote: remote, pushOK: true}
}

func (f *fakeRemote) PullAll(context.Context, string) ([]words.Word, error) {
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	out := make([]words.Word, len(f.remote))
	copy(out, f.remote)
	return out, nil
}

func (f *fakeRemote) PushOne(_ context.Context, _ string, action sheets.Action, w words.Word) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, pushCall{action: action, word: w})
	return f.pushOK
}

func (f *fakeRemote) pushedWords() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.pushed))
	for i, p := range f.pushed {
		out[i] = p.word.Word
	}
	return out
}

// memStorage is an in-memory Storage.
type memStorage struct {
	mu         sync.Mutex
	words      []words.Word
	lastSynced string
	replaceErr error
	replaces   int
}

func (s *memStorage) Words() ([]words.Word, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]words.Word, len(s.words))
	copy(out, s.words)
	return out, nil
}

func (s *memStorage) ReplaceAll(list []words.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.words = list
	s.replaces++
	return nil
}

func (s *memStorage) SetLastSyncedAt(marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSynced = marker
	return nil
}

func word(id, text string, mastery int, createdAt int64) words.Word {
	return words.Word{ID: id, Word: text, MasteryLevel: mastery, CreatedAt: createdAt}
}

func TestSync_MergeIsIdempotent(t *testing.T) {
	remote := []words.Word{
		word("x", "Hund", 30, 100),
		word("y", "Katze", 10, 200),
	}
	store := &memStorage{words: []words.Word{word("a", "hund", 40, 150)}}
	rec := New(newFakeRemote(remote), store)

	if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	first, _ := store.Words()

	if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	second, _ := store.Words()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("sync not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestSync_MasteryNeverDecreases(t *testing.T) {
	tests := []struct {
		name           string
		local, remote  int
		wantMastery    int
	}{
		{"remote lower keeps local", 40, 25, 40},
		{"remote higher wins", 40, 90, 90},
		{"equal unchanged", 40, 40, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStorage{words: []words.Word{word("a", "Hund", tt.local, 100)}}
			remote := newFakeRemote([]words.Word{word("a", "Hund", tt.remote, 100)})
			rec := New(remote, store)

			if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
				t.Fatalf("sync failed: %v", err)
			}
			got, _ := store.Words()
			if got[0].MasteryLevel != tt.wantMastery {
				t.Errorf("mastery = %d, want %d", got[0].MasteryLevel, tt.wantMastery)
			}
		})
	}
}

func TestSync_LocalDescriptiveContentWins(t *testing.T) {
	local := words.Word{
		ID: "a", Word: "Hund", Meaning: "con chó (đã sửa)", IPA: "hʊnt",
		MasteryLevel: 10, CreatedAt: 100,
	}
	remoteCopy := words.Word{
		ID: "a", Word: "Hund", Meaning: "stale meaning", IPA: "wrong",
		MasteryLevel: 50, CreatedAt: 100,
	}
	store := &memStorage{words: []words.Word{local}}
	rec := New(newFakeRemote([]words.Word{remoteCopy}), store)

	if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	got, _ := store.Words()
	if got[0].Meaning != local.Meaning || got[0].IPA != local.IPA {
		t.Errorf("descriptive fields overwritten from remote: %+v", got[0])
	}
	if got[0].MasteryLevel != 50 {
		t.Errorf("mastery = %d, want 50", got[0].MasteryLevel)
	}
}

func TestSync_AdoptsUnknownRemoteRecordVerbatim(t *testing.T) {
	incoming := words.Word{
		ID: "z", Word: "Apfel", Gender: "der", Meaning: "quả táo",
		IPA: "ˈapfl̩", PartOfSpeech: "noun", Plural: "Äpfel",
		Synonyms:     []string{"Obst"},
		Examples:     []words.Example{{German: "Der Apfel ist rot.", Vietnamese: "Quả táo màu đỏ."}},
		CreatedAt:    500,
		MasteryLevel: 15,
	}
	store := &memStorage{words: []words.Word{word("a", "Hund", 40, 100)}}
	rec := New(newFakeRemote([]words.Word{incoming}), store)

	if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	got, _ := store.Words()
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Newest first, so the adopted record leads.
	if !reflect.DeepEqual(got[0], incoming) {
		t.Errorf("remote record not adopted verbatim:\ngot  %+v\nwant %+v", got[0], incoming)
	}
}

func TestSync_PushQueueContainsOnlyUnmatchedLocals(t *testing.T) {
	// "hund" matches local "Hund" case-insensitively despite distinct IDs,
	// so only "Katze" is local-only.
	store := &memStorage{words: []words.Word{
		word("a", "Hund", 0, 100),
		word("b", "Katze", 0, 200),
	}}
	remote := newFakeRemote([]words.Word{word("x", "hund", 0, 100)})
	rec := New(remote, store)

	if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	rec.Wait()

	pushed := remote.pushedWords()
	if len(pushed) != 1 || pushed[0] != "Katze" {
		t.Errorf("push queue = %v, want [Katze]", pushed)
	}
	if remote.pushed[0].action != sheets.ActionAddWord {
		t.Errorf("push action = %q, want %q", remote.pushed[0].action, sheets.ActionAddWord)
	}
}

func TestSync_EmptyRemoteStillPushesEverything(t *testing.T) {
	// Fail-open pull: an empty remote set means the whole local
	// collection is the push queue, and the sync still completes.
	store := &memStorage{words: []words.Word{
		word("a", "Hund", 0, 100),
		word("b", "Katze", 0, 200),
	}}
	remote := newFakeRemote(nil)
	rec := New(remote, store)

	if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	rec.Wait()

	if got := len(remote.pushedWords()); got != 2 {
		t.Errorf("pushed %d records, want 2", got)
	}
	if store.lastSynced == "" {
		t.Error("last-synced marker not recorded")
	}
}

func TestSync_PullFailureLeavesLocalUntouched(t *testing.T) {
	store := &memStorage{words: []words.Word{word("a", "Hund", 40, 100)}}
	remote := newFakeRemote(nil)
	remote.pullErr = errors.New("network unreachable")
	rec := New(remote, store)

	if err := rec.Sync(context.Background(), "http://sheet"); err == nil {
		t.Fatal("expected sync to report the pull failure")
	}
	rec.Wait()

	if store.replaces != 0 {
		t.Error("local collection was replaced despite pull failure")
	}
	if len(remote.pushedWords()) != 0 {
		t.Error("pushes were dispatched despite pull failure")
	}
	if store.lastSynced != "" {
		t.Error("sync marker recorded despite pull failure")
	}
}

func TestSync_ResultSortedNewestFirst(t *testing.T) {
	store := &memStorage{words: []words.Word{
		word("a", "Alt", 0, 100),
		word("b", "Neu", 0, 300),
	}}
	remote := newFakeRemote([]words.Word{word("c", "Mittel", 0, 200)})
	rec := New(remote, store)

	if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	got, _ := store.Words()
	wantOrder := []string{"Neu", "Mittel", "Alt"}
	for i, want := range wantOrder {
		if got[i].Word != want {
			t.Errorf("position %d = %q, want %q (full: %+v)", i, got[i].Word, want, got)
		}
	}
}

func TestSync_FirstMatchWinsOnDuplicateWords(t *testing.T) {
	// Two local entries share the word text; only the first is raised.
	store := &memStorage{words: []words.Word{
		word("a", "Hund", 10, 300),
		word("b", "hund", 10, 100),
	}}
	remote := newFakeRemote([]words.Word{word("x", "HUND", 60, 200)})
	rec := New(remote, store)

	if err := rec.Sync(context.Background(), "http://sheet"); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	got, _ := store.Words()
	byID := map[string]int{}
	for _, w := range got {
		byID[w.ID] = w.MasteryLevel
	}
	if byID["a"] != 60 {
		t.Errorf("first match mastery = %d, want 60", byID["a"])
	}
	if byID["b"] != 10 {
		t.Errorf("second duplicate mastery = %d, want 10 (untouched)", byID["b"])
	}
}

func TestDelete_RemovesLocallyAndDispatchesPush(t *testing.T) {
	target := word("a", "Hund", 0, 100)
	store := &memStorage{words: []words.Word{target, word("b", "Katze", 0, 200)}}
	remote := newFakeRemote(nil)
	rec := New(remote, store)

	if err := rec.Delete(context.Background(), "http://sheet", target); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	rec.Wait()

	got, _ := store.Words()
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("collection after delete = %+v, want only b", got)
	}
	if len(remote.pushed) != 1 || remote.pushed[0].action != sheets.ActionDeleteWord {
		t.Errorf("pushes = %+v, want one DELETE_WORD", remote.pushed)
	}
}

func TestPushProgress_DispatchesUpdate(t *testing.T) {
	remote := newFakeRemote(nil)
	rec := New(remote, &memStorage{})

	rec.PushProgress(context.Background(), "http://sheet", word("a", "Hund", 55, 100))
	rec.Wait()

	if len(remote.pushed) != 1 || remote.pushed[0].action != sheets.ActionUpdateProgress {
		t.Errorf("pushes = %+v, want one UPDATE_PROGRESS", remote.pushed)
	}
	if remote.pushed[0].word.MasteryLevel != 55 {
		t.Errorf("pushed mastery = %d, want 55", remote.pushed[0].word.MasteryLevel)
	}
}
