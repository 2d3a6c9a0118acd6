package whatsapp

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// The bridge accumulates pre-key files and stray temp files in the auth
// directory over time; on a small host that slowly eats the disk. The
// Cleaner trims it on a long timer.

// CleanerConfig bounds the auth directory.
type CleanerConfig struct {
	Dir          string
	Interval     time.Duration
	MaxPreKeys   int
	MaxDirSizeMB float64
}

// AuthStats describes the auth directory for the admin surface.
type AuthStats struct {
	TotalSizeMB  float64 `json:"totalSizeMB"`
	PreKeyCount  int     `json:"preKeyCount"`
	FileCount    int     `json:"fileCount"`
	MaxPreKeys   int     `json:"maxPreKeys"`
	MaxDirSizeMB float64 `json:"maxDirSizeMB"`
}

// Cleaner periodically removes temp files and trims old pre-keys from the
// auth directory.
type Cleaner struct {
	cfg CleanerConfig
}

// NewCleaner returns a Cleaner for cfg.
func NewCleaner(cfg CleanerConfig) *Cleaner {
	return &Cleaner{cfg: cfg}
}

// Run cleans immediately, then on every interval tick until ctx ends.
func (c *Cleaner) Run(ctx context.Context) {
	log.Printf("[authclean] scheduled every %s (maxPreKeys=%d, maxDirSize=%.0fMB)",
		c.cfg.Interval, c.cfg.MaxPreKeys, c.cfg.MaxDirSizeMB)

	c.Cleanup()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Stats reports the current state of the auth directory.
func (c *Cleaner) Stats() AuthStats {
	stats := AuthStats{
		MaxPreKeys:   c.cfg.MaxPreKeys,
		MaxDirSizeMB: c.cfg.MaxDirSizeMB,
	}

	entries, err := os.ReadDir(c.cfg.Dir)
	if err != nil {
		return stats
	}

	var totalSize int64
	for _, entry := range entries {
		stats.FileCount++
		if strings.HasPrefix(entry.Name(), "pre-key-") {
			stats.PreKeyCount++
		}
		// The file may vanish between ReadDir and Info.
		if info, err := entry.Info(); err == nil {
			totalSize += info.Size()
		}
	}

	stats.TotalSizeMB = float64(totalSize) / (1024 * 1024)
	return stats
}

// Cleanup removes temp leftovers and trims pre-keys beyond the limit.
func (c *Cleaner) Cleanup() {
	entries, err := os.ReadDir(c.cfg.Dir)
	if err != nil {
		log.Printf("[authclean] auth directory unavailable, skipping: %v", err)
		return
	}

	removed := 0
	type preKey struct {
		name string
		num  int
	}
	var preKeys []preKey

	for _, entry := range entries {
		name := entry.Name()

		if strings.HasSuffix(name, ".tmp") ||
			strings.HasSuffix(name, ".lock") ||
			strings.HasPrefix(name, "temp-") {
			if os.Remove(filepath.Join(c.cfg.Dir, name)) == nil {
				removed++
			}
			continue
		}

		if strings.HasPrefix(name, "pre-key-") {
			raw := strings.TrimSuffix(strings.TrimPrefix(name, "pre-key-"), ".json")
			if num, err := strconv.Atoi(raw); err == nil {
				preKeys = append(preKeys, preKey{name: name, num: num})
			}
		}
	}

	if len(preKeys) > c.cfg.MaxPreKeys {
		sort.Slice(preKeys, func(i, j int) bool { return preKeys[i].num < preKeys[j].num })
		stale := preKeys[:len(preKeys)-c.cfg.MaxPreKeys]
		for _, pk := range stale {
			if os.Remove(filepath.Join(c.cfg.Dir, pk.name)) == nil {
				removed++
			}
		}
		log.Printf("[authclean] trimmed %d old pre-keys (%d -> %d)",
			len(stale), len(preKeys), c.cfg.MaxPreKeys)
	}

	if stats := c.Stats(); stats.TotalSizeMB > c.cfg.MaxDirSizeMB {
		log.Printf("[authclean] auth directory size (%.2fMB) exceeds limit (%.0fMB)",
			stats.TotalSizeMB, c.cfg.MaxDirSizeMB)
	}

	if removed > 0 {
		log.Printf("[authclean] removed %d file(s)", removed)
	}
}
