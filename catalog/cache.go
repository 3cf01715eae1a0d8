package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
)

// Cache is the on-disk metadata cache: a JSON document mapping normalized
// identity keys to entries. It is loaded once per run, mutated in memory and
// persisted after every mutation so an interrupted run loses nothing.
type Cache struct {
	path    string
	entries map[string]Entry
}

// Load reads the cache document at path. A missing or malformed file yields
// an empty cache with a warning; the cache is an optimization, never a
// reason to abort.
func Load(path string) *Cache {
	c := &Cache{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("could not read metadata cache, starting empty")
		}
		return c
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("metadata cache is corrupt, starting empty")
		c.entries = make(map[string]Entry)
	}
	return c
}

// Lookup returns the entry for key, if any. Exact-key only.
func (c *Cache) Lookup(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Insert stores entry under key, replacing any previous entry.
func (c *Cache) Insert(key string, entry Entry) {
	c.entries[key] = entry
}

// Persist writes the cache document atomically: the JSON is written to a
// temporary file next to the target and then renamed over it, so a crash
// mid-write cannot corrupt an existing cache.
func (c *Cache) Persist() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metadata cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temporary cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Keys returns all cache keys in sorted order.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
