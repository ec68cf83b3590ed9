package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"ideawalker-core/internal/pkg/fsutil"

	"github.com/patrickmn/go-cache"
)

// CacheFilename lives at the project root.
const CacheFilename = ".embeddings.json"

type Entry struct {
	Hash   string    `json:"hash"`
	Vector []float32 `json:"vector"`
}

// Cache keeps note vectors keyed by note id, valid only while the content
// hash matches. The in-memory side is a go-cache without expiry; Persist
// writes the whole set back to disk.
type Cache struct {
	path  string
	mu    sync.Mutex
	items *cache.Cache
	dirty bool
}

func NewCache(path string) *Cache {
	return &Cache{path: path, items: cache.New(cache.NoExpiration, 0)}
}

// ContentHash is the cache validity key for a note body.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Load reads the cache file; a missing file leaves the cache empty.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read embedding cache: %w", err)
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse embedding cache %s: %w", c.path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Flush()
	for id, e := range entries {
		c.items.Set(id, e, cache.NoExpiration)
	}
	c.dirty = false
	return nil
}

// Get returns the vector for id when it was computed from the same content.
func (c *Cache) Get(id, hash string) ([]float32, bool) {
	v, ok := c.items.Get(id)
	if !ok {
		return nil, false
	}
	e := v.(Entry)
	if e.Hash != hash || len(e.Vector) == 0 {
		return nil, false
	}
	return e.Vector, true
}

func (c *Cache) Update(id, hash string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Set(id, Entry{Hash: hash, Vector: vector}, cache.NoExpiration)
	c.dirty = true
}

// All returns every non-empty vector by id.
func (c *Cache) All() map[string][]float32 {
	out := map[string][]float32{}
	for id, item := range c.items.Items() {
		if e := item.Object.(Entry); len(e.Vector) > 0 {
			out[id] = e.Vector
		}
	}
	return out
}

// Persist writes the cache when something changed since the last write.
func (c *Cache) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	entries := map[string]Entry{}
	for id, item := range c.items.Items() {
		entries[id] = item.Object.(Entry)
	}
	if err := fsutil.WriteJSON(c.path, entries); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
