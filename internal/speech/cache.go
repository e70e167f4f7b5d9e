package speech

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/example/deutschmaster/internal/audio"
)

// Cache holds decoded pronunciation buffers keyed by the spoken text.
//
// Vocabulary is small and clips are short (a word or phrase at 24kHz
// mono is tens of kilobytes), so entries are kept for the process
// lifetime and never evicted. A repeated word plays instantly without
// another network round trip.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*audio.Buffer
	bytes   uint64
	hits    uint64
	misses  uint64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*audio.Buffer)}
}

// Get returns the cached buffer for text, or nil when absent.
func (c *Cache) Get(text string) *audio.Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, ok := c.entries[text]
	if ok {
		c.hits++
		return buf
	}
	c.misses++
	return nil
}

// Put stores buf under text, replacing any previous entry.
func (c *Cache) Put(text string, buf *audio.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[text]; ok {
		c.bytes -= uint64(len(prev.PCM()))
	}
	c.entries[text] = buf
	c.bytes += uint64(len(buf.PCM()))
	log.Debug("cached pronunciation",
		"text", text,
		"size", humanize.Bytes(uint64(len(buf.PCM()))),
		"total", humanize.Bytes(c.bytes),
		"entries", len(c.entries))
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
