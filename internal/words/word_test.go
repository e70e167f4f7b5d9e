package words

import "testing"

func TestWord_Matches(t *testing.T) {
	tests := []struct {
		name string
		a, b Word
		want bool
	}{
		{"same id", Word{ID: "x", Word: "Hund"}, Word{ID: "x", Word: "Katze"}, true},
		{"different id same word", Word{ID: "a", Word: "Hund"}, Word{ID: "b", Word: "hund"}, true},
		{"case and umlauts", Word{ID: "a", Word: "Äpfel"}, Word{ID: "b", Word: "äpfel"}, true},
		{"no overlap", Word{ID: "a", Word: "Hund"}, Word{ID: "b", Word: "Katze"}, false},
		{"empty id never matches by id", Word{ID: "", Word: "Hund"}, Word{ID: "", Word: "Katze"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Matches(tt.b); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindMatch_FirstWins(t *testing.T) {
	list := []Word{
		{ID: "a", Word: "Hund"},
		{ID: "b", Word: "hund"},
		{ID: "c", Word: "Katze"},
	}

	if got := FindMatch(list, Word{ID: "z", Word: "HUND"}); got != 0 {
		t.Errorf("FindMatch = %d, want 0 (first of the duplicates)", got)
	}
	if got := FindMatch(list, Word{ID: "c", Word: "anders"}); got != 2 {
		t.Errorf("FindMatch by id = %d, want 2", got)
	}
	if got := FindMatch(list, Word{ID: "z", Word: "Maus"}); got != -1 {
		t.Errorf("FindMatch = %d, want -1", got)
	}
}

func TestSortByCreatedDesc_StableNewestFirst(t *testing.T) {
	list := []Word{
		{ID: "a", CreatedAt: 100},
		{ID: "b", CreatedAt: 300},
		{ID: "c", CreatedAt: 200},
		{ID: "d", CreatedAt: 200},
	}
	SortByCreatedDesc(list)

	wantOrder := []string{"b", "c", "d", "a"}
	for i, want := range wantOrder {
		if list[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, list[i].ID, want)
		}
	}
}

func TestCreated(t *testing.T) {
	w := Word{CreatedAt: 1700000000000}
	if got := w.Created().UnixMilli(); got != 1700000000000 {
		t.Errorf("Created().UnixMilli() = %d", got)
	}
}
