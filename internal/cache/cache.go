// Package cache keeps the procedures proven equal by earlier runs on disk,
// keyed by the contents of both versions of the file.
package cache

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const cacheFileName = "verdict_cache.gob"

// Key identifies one comparison. Any change to either file, the sliced
// symbol or the comparator settings yields a different key.
type Key struct {
	OldHash string
	NewHash string
	Name    string
	Symbol  string
	Options string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", k.OldHash, k.NewHash, k.Options, k.Symbol, k.Name)
}

type Entry struct {
	Verdict      string
	CreatedAt    time.Time
	LastAccessed time.Time
}

type Cache struct {
	CacheDir string
	entries  map[string]Entry
	mutex    sync.RWMutex
	// zero means entries never expire
	maxAge time.Duration
}

func New(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		CacheDir: cacheDir,
		entries:  make(map[string]Entry),
	}

	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return cache, nil
}

func (c *Cache) load() error {
	file, err := os.Open(filepath.Join(c.CacheDir, cacheFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	return nil
}

// Save writes the entries to the cache directory.
func (c *Cache) Save() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	file, err := os.Create(filepath.Join(c.CacheDir, cacheFileName))
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

// Set records a verdict in memory. Call Save to persist it.
func (c *Cache) Set(k Key, verdict string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.entries[k.String()] = Entry{
		Verdict:      verdict,
		CreatedAt:    now,
		LastAccessed: now,
	}
}

func (c *Cache) Get(k Key) (Entry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := k.String()
	entry, exists := c.entries[key]
	if !exists {
		return Entry{}, false
	}
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		delete(c.entries, key)
		return Entry{}, false
	}

	entry.LastAccessed = time.Now()
	c.entries[key] = entry
	return entry, true
}

func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	c.entries = make(map[string]Entry)
	c.mutex.Unlock()
	return c.Save()
}

// FileHash returns the hex md5 digest of the file at path.
func FileHash(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// OptionsHash digests any settings value by its printed form.
func OptionsHash(v any) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%+v", v))))
}
