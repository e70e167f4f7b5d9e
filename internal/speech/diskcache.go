package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
)

// DiskCache persists raw PCM clips across sessions so a word fetched
// once never needs the network again, even after a restart. Files are
// zstd-compressed and keyed by a hash of the spoken text. Like the
// in-memory cache it never evicts; a whole vocabulary's audio fits in
// a few megabytes.
type DiskCache struct {
	dir string
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewDiskCache opens (and if needed creates) a cache directory.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pronunciation cache directory: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	return &DiskCache{dir: dir, enc: enc, dec: dec}, nil
}

func (d *DiskCache) path(text string) string {
	hash := sha256.Sum256([]byte(text))
	return filepath.Join(d.dir, hex.EncodeToString(hash[:16])+".pcm.zst")
}

// Get returns the cached PCM for text, or nil when absent. A corrupt
// file is removed and treated as a miss.
func (d *DiskCache) Get(text string) []byte {
	path := d.path(text)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	pcm, err := d.dec.DecodeAll(raw, nil)
	if err != nil {
		log.Debug("removing corrupt pronunciation file", "path", path, "err", err)
		_ = os.Remove(path)
		return nil
	}
	return pcm
}

// Put stores pcm under text. Failures are logged and absorbed; a disk
// cache is an optimization, never a requirement.
func (d *DiskCache) Put(text string, pcm []byte) {
	path := d.path(text)
	compressed := d.enc.EncodeAll(pcm, nil)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		log.Debug("failed to write pronunciation file", "path", path, "err", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		log.Debug("failed to move pronunciation file", "path", path, "err", err)
		return
	}
	log.Debug("pronunciation persisted",
		"text", text,
		"raw", humanize.Bytes(uint64(len(pcm))),
		"compressed", humanize.Bytes(uint64(len(compressed))))
}
