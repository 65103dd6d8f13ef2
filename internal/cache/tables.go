// Package cache holds parsed workbook tables between pipeline runs.
//
// Entries are keyed by input identity, so an unchanged workbook (same bytes,
// or same path, mtime and size) is never parsed twice. When an input origin
// is observed with a new identity, everything cached for its previous
// identity is evicted. The cache is an optimization only: a nil *TableCache
// is valid and caches nothing.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/parsers"
	"revenue-dashboard/pkg/logger"
)

// Config bounds the table cache
type Config struct {
	// MaxEntries caps cached sheet lists plus cached tables
	MaxEntries int `mapstructure:"max_entries"`
	// TTL expires entries regardless of identity; 0 disables expiry
	TTL time.Duration `mapstructure:"ttl"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxEntries: 32,
		TTL:        0,
	}
}

// Validate validates the cache configuration
func (c *Config) Validate() error {
	if c.MaxEntries < 1 {
		return fmt.Errorf("max entries must be at least 1, got %d", c.MaxEntries)
	}
	if c.TTL < 0 {
		return fmt.Errorf("ttl cannot be negative, got %s", c.TTL)
	}
	return nil
}

// Stats counts cache activity since creation
type Stats struct {
	Hits          int `json:"hits" yaml:"hits"`
	Misses        int `json:"misses" yaml:"misses"`
	Evictions     int `json:"evictions" yaml:"evictions"`
	Invalidations int `json:"invalidations" yaml:"invalidations"`
	Expired       int `json:"expired" yaml:"expired"`
	Entries       int `json:"entries" yaml:"entries"`
}

type entry struct {
	sheets []string
	table  *models.RawTable
}

// TableCache caches sheet lists and parsed sheets per input identity
type TableCache struct {
	mu      sync.Mutex
	entries *LRUCache[entry]
	ttl     time.Duration
	origins map[string]string
	stats   Stats
	logger  logger.Logger
}

// NewTableCache creates a table cache; a nil config uses the defaults
func NewTableCache(config *Config) (*TableCache, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TableCache{
		entries: NewLRUCache[entry](config.MaxEntries, config.TTL),
		ttl:     config.TTL,
		origins: make(map[string]string),
		logger:  logger.GetGlobalLogger().WithComponent("cache"),
	}, nil
}

// Observe records the current identity of an input. If the same origin was
// last seen with a different key, all entries for the old key are dropped.
// It reports whether an invalidation happened. With a TTL set, expired
// entries of every origin are swept first.
func (c *TableCache) Observe(id parsers.Identity) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl > 0 {
		if n := c.entries.CleanExpired(); n > 0 {
			c.stats.Expired += n
			c.logger.WithField("removed", n).Debug("Swept expired cached tables")
		}
	}

	previous, seen := c.origins[id.Origin]
	c.origins[id.Origin] = id.Key
	if !seen || previous == id.Key {
		return false
	}

	prefix := previous + "#"
	removed := c.entries.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
	c.stats.Invalidations++
	c.logger.WithFields(logger.Fields{
		"origin":  id.Origin,
		"removed": removed,
	}).Debug("Input changed, evicted cached tables")
	return true
}

// Sheets returns the cached sheet list for an identity
func (c *TableCache) Sheets(id parsers.Identity) ([]string, bool) {
	e, ok := c.get(sheetsKey(id))
	if !ok {
		return nil, false
	}
	return e.sheets, true
}

// PutSheets caches the sheet list for an identity
func (c *TableCache) PutSheets(id parsers.Identity, sheets []string) {
	c.put(sheetsKey(id), entry{sheets: append([]string(nil), sheets...)})
}

// Table returns the cached table for a sheet of an identity
func (c *TableCache) Table(id parsers.Identity, sheet string) (*models.RawTable, bool) {
	e, ok := c.get(tableKey(id, sheet))
	if !ok {
		return nil, false
	}
	return e.table, true
}

// PutTable caches a parsed sheet
func (c *TableCache) PutTable(id parsers.Identity, sheet string, table *models.RawTable) {
	c.put(tableKey(id, sheet), entry{table: table})
}

// Purge drops every entry and forgets observed origins
func (c *TableCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	c.origins = make(map[string]string)
}

// Stats returns a snapshot of the cache counters
func (c *TableCache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = c.entries.Size()
	return s
}

func (c *TableCache) get(key string) (entry, bool) {
	if c == nil {
		return entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return e, ok
}

func (c *TableCache) put(key string, e entry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries.Set(key, e) {
		c.stats.Evictions++
	}
}

func sheetsKey(id parsers.Identity) string {
	return id.Key + "#"
}

func tableKey(id parsers.Identity, sheet string) string {
	return id.Key + "#sheet:" + sheet
}
