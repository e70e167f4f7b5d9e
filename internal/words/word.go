// Package words defines the vocabulary record model shared by the
// sync reconciler, the remote sheet client, and the local store.
package words

import (
	"sort"
	"strings"
	"time"
)

// Gender values used by German nouns. "none" covers verbs, phrases and
// anything else without a grammatical article.
const (
	GenderDer  = "der"
	GenderDie  = "die"
	GenderDas  = "das"
	GenderNone = "none"
)

// Example is a usage sentence pair attached to a word.
type Example struct {
	German     string `json:"german"`
	Vietnamese string `json:"vietnamese"`
}

// VerbForms holds the irregular forms of a verb. Only present on verbs.
type VerbForms struct {
	Praeteritum string `json:"praeteritum"`
	PartizipII  string `json:"partizipII"`
}

// Word is one learned vocabulary entry.
//
// ID is opaque, assigned at creation and immutable. Word is the
// secondary matching key: two records created independently on two
// devices get distinct IDs but are reconciled as the same logical
// entry when their Word text matches case-insensitively.
//
// MasteryLevel is nominally 0-100 but deliberately un-clamped upstream;
// consumers must treat out-of-range values defensively. CreatedAt is
// epoch milliseconds and is never mutated after creation.
type Word struct {
	ID           string     `json:"id" db:"id"`
	Word         string     `json:"word" db:"word"`
	Gender       string     `json:"gender" db:"gender"`
	Meaning      string     `json:"meaning" db:"meaning"`
	IPA          string     `json:"ipa" db:"ipa"`
	PartOfSpeech string     `json:"partOfSpeech" db:"part_of_speech"`
	Plural       string     `json:"plural" db:"plural"`
	Synonyms     []string   `json:"synonyms" db:"-"`
	Examples     []Example  `json:"examples" db:"-"`
	VerbForms    *VerbForms `json:"verbForms,omitempty" db:"-"`
	CreatedAt    int64      `json:"createdAt" db:"created_at"`
	MasteryLevel int        `json:"masteryLevel" db:"mastery_level"`
}

// Matches reports whether other refers to the same logical entry:
// identical ID, or the same word text compared case-insensitively.
func (w Word) Matches(other Word) bool {
	if w.ID != "" && w.ID == other.ID {
		return true
	}
	return strings.EqualFold(w.Word, other.Word)
}

// Created returns the creation timestamp as a time.Time.
func (w Word) Created() time.Time {
	return time.UnixMilli(w.CreatedAt)
}

// FindMatch returns the index of the first record in list that matches
// w by ID or case-insensitive word text, or -1. First match wins; when
// several records share a word text only the first is considered.
func FindMatch(list []Word, w Word) int {
	for i := range list {
		if list[i].Matches(w) {
			return i
		}
	}
	return -1
}

// SortByCreatedDesc orders a collection newest-first. The sort is
// stable so records sharing a timestamp keep their relative order.
func SortByCreatedDesc(list []Word) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt > list[j].CreatedAt
	})
}
