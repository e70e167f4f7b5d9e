// Package store persists the word collection and a few settings in a
// local SQLite database. The database is the source of truth between
// syncs; the remote word store is only ever merged into it.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/deutschmaster/internal/words"
)

const schema = `
CREATE TABLE IF NOT EXISTS words (
	id            TEXT PRIMARY KEY,
	word          TEXT NOT NULL,
	gender        TEXT NOT NULL DEFAULT '',
	meaning       TEXT NOT NULL DEFAULT '',
	ipa           TEXT NOT NULL DEFAULT '',
	part_of_speech TEXT NOT NULL DEFAULT '',
	plural        TEXT NOT NULL DEFAULT '',
	synonyms      TEXT NOT NULL DEFAULT '[]',
	examples      TEXT NOT NULL DEFAULT '[]',
	verb_forms    TEXT,
	created_at    INTEGER NOT NULL DEFAULT 0,
	mastery_level INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Setting keys.
const (
	settingSheetURL     = "sheet_url"
	settingLastSyncedAt = "last_synced_at"
)

// Store is a SQLite-backed word collection.
type Store struct {
	db *sqlx.DB
}

// Open opens (and if needed creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// wordRow is the flat table shape; nested fields travel as JSON text.
type wordRow struct {
	words.Word
	SynonymsJSON  string         `db:"synonyms"`
	ExamplesJSON  string         `db:"examples"`
	VerbFormsJSON sql.NullString `db:"verb_forms"`
}

func (r *wordRow) toWord() (words.Word, error) {
	w := r.Word
	if err := json.Unmarshal([]byte(r.SynonymsJSON), &w.Synonyms); err != nil {
		return w, fmt.Errorf("bad synonyms column for %q: %w", w.Word, err)
	}
	if err := json.Unmarshal([]byte(r.ExamplesJSON), &w.Examples); err != nil {
		return w, fmt.Errorf("bad examples column for %q: %w", w.Word, err)
	}
	if r.VerbFormsJSON.Valid && r.VerbFormsJSON.String != "" {
		w.VerbForms = &words.VerbForms{}
		if err := json.Unmarshal([]byte(r.VerbFormsJSON.String), w.VerbForms); err != nil {
			return w, fmt.Errorf("bad verb_forms column for %q: %w", w.Word, err)
		}
	}
	return w, nil
}

func rowFromWord(w words.Word) (wordRow, error) {
	r := wordRow{Word: w}
	syn, err := json.Marshal(emptyIfNil(w.Synonyms))
	if err != nil {
		return r, err
	}
	ex, err := json.Marshal(emptyIfNilExamples(w.Examples))
	if err != nil {
		return r, err
	}
	r.SynonymsJSON = string(syn)
	r.ExamplesJSON = string(ex)
	if w.VerbForms != nil {
		vf, err := json.Marshal(w.VerbForms)
		if err != nil {
			return r, err
		}
		r.VerbFormsJSON = sql.NullString{String: string(vf), Valid: true}
	}
	return r, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyIfNilExamples(s []words.Example) []words.Example {
	if s == nil {
		return []words.Example{}
	}
	return s
}

// Words returns the whole collection, newest first.
func (s *Store) Words() ([]words.Word, error) {
	var rows []wordRow
	if err := s.db.Select(&rows, `SELECT * FROM words ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}
	out := make([]words.Word, 0, len(rows))
	for i := range rows {
		w, err := rows[i].toWord()
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

const insertWord = `
INSERT INTO words (id, word, gender, meaning, ipa, part_of_speech, plural,
	synonyms, examples, verb_forms, created_at, mastery_level)
VALUES (:id, :word, :gender, :meaning, :ipa, :part_of_speech, :plural,
	:synonyms, :examples, :verb_forms, :created_at, :mastery_level)`

// ReplaceAll swaps the entire collection for list in one transaction.
func (s *Store) ReplaceAll(list []words.Word) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM words`); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	for _, w := range list {
		row, err := rowFromWord(w)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", w.Word, err)
		}
		if _, err := tx.NamedExec(insertWord, row); err != nil {
			return fmt.Errorf("failed to insert %q: %w", w.Word, err)
		}
	}
	return tx.Commit()
}

// Insert adds a single word to the collection.
func (s *Store) Insert(w words.Word) error {
	row, err := rowFromWord(w)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", w.Word, err)
	}
	if _, err := s.db.NamedExec(insertWord, row); err != nil {
		return fmt.Errorf("failed to insert %q: %w", w.Word, err)
	}
	return nil
}

// Delete removes the word with the given id. Missing ids are not an
// error.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM words WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	return nil
}

// UpdateMastery sets the mastery score for the word with the given id.
func (s *Store) UpdateMastery(id string, level int) error {
	if _, err := s.db.Exec(`UPDATE words SET mastery_level = ? WHERE id = ?`, level, id); err != nil {
		return fmt.Errorf("failed to update mastery: %w", err)
	}
	return nil
}

func (s *Store) setting(key string) (string, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// SheetURL returns the configured remote word store endpoint, empty
// when unset.
func (s *Store) SheetURL() (string, error) { return s.setting(settingSheetURL) }

// SetSheetURL stores the remote word store endpoint.
func (s *Store) SetSheetURL(url string) error { return s.setSetting(settingSheetURL, url) }

// LastSyncedAt returns the human-readable marker of the last completed
// sync, empty when never synced.
func (s *Store) LastSyncedAt() (string, error) { return s.setting(settingLastSyncedAt) }

// SetLastSyncedAt records the marker of a completed sync.
func (s *Store) SetLastSyncedAt(marker string) error {
	return s.setSetting(settingLastSyncedAt, marker)
}
