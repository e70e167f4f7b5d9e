package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"github.com/example/deutschmaster/internal/words"
)

// snapshotName is the backup file written next to the database.
const snapshotName = "words.json.zst"

// WriteSnapshot writes a compressed JSON backup of list into dir. The
// write is atomic: a temp file is renamed over the previous snapshot,
// so a crash mid-write never corrupts the last good backup.
func WriteSnapshot(dir string, list []words.Word) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, snapshotName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close() //nolint:errcheck
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to finish snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	target := filepath.Join(dir, snapshotName)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	if info, err := os.Stat(target); err == nil {
		log.Debug("snapshot written",
			"words", len(list),
			"raw", humanize.Bytes(uint64(len(raw))),
			"compressed", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// ReadSnapshot loads the backup from dir. A missing snapshot returns
// an empty collection and no error.
func ReadSnapshot(dir string) ([]words.Word, error) {
	raw, err := os.ReadFile(filepath.Join(dir, snapshotName))
	if os.IsNotExist(err) {
		return []words.Word{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()

	plain, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var list []words.Word
	if err := json.Unmarshal(plain, &list); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return list, nil
}
