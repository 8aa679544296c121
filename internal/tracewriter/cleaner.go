package tracewriter

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"hanachan/internal/logging"
)

// RetentionPolicy bounds how many trace bundles, and how old, are kept
// on disk under a single root directory.
type RetentionPolicy struct {
	MaxBundles int
	MaxAge     time.Duration
}

// Stats summarises the last retention sweep.
type Stats struct {
	Bundles   int
	Bytes     int64
	LastSweep time.Time
}

// Cleaner periodically prunes trace bundles according to a retention
// policy, mirroring the on-disk directory layout NewWriter produces.
type Cleaner struct {
	mu     sync.RWMutex
	root   string
	policy RetentionPolicy
	log    *logging.Logger
	now    func() time.Time
	stats  Stats
}

// NewCleaner constructs a cleaner for the trace bundles under root.
func NewCleaner(root string, policy RetentionPolicy, logger *logging.Logger) *Cleaner {
	if logger == nil {
		logger = logging.L()
	}
	return &Cleaner{root: root, policy: policy, log: logger, now: time.Now}
}

// Run sweeps immediately, then again every interval until done is closed.
func (c *Cleaner) Run(done <-chan struct{}, interval time.Duration) {
	if c == nil {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	c.RunOnce()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.RunOnce()
		}
	}
}

// RunOnce performs a single retention sweep.
func (c *Cleaner) RunOnce() {
	if c == nil || c.root == "" {
		return
	}
	entries, err := os.ReadDir(c.root)
	if err != nil {
		c.log.Warn("trace retention scan failed", logging.Error(err), logging.String("root", c.root))
		return
	}

	type bundle struct {
		path    string
		modTime time.Time
		size    int64
	}
	bundles := make([]bundle, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(c.root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			c.log.Warn("trace retention stat failed", logging.Error(err), logging.String("path", path))
			continue
		}
		size, err := directorySize(path)
		if err != nil {
			c.log.Warn("trace retention size failed", logging.Error(err), logging.String("path", path))
			continue
		}
		bundles = append(bundles, bundle{path: path, modTime: info.ModTime(), size: size})
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].modTime.After(bundles[j].modTime) })

	now := c.now()
	stats := Stats{LastSweep: now}
	for i, b := range bundles {
		remove := false
		if c.policy.MaxAge > 0 && now.Sub(b.modTime) > c.policy.MaxAge {
			remove = true
		}
		if c.policy.MaxBundles > 0 && i >= c.policy.MaxBundles {
			remove = true
		}
		if remove {
			if err := os.RemoveAll(b.path); err != nil {
				c.log.Warn("trace retention removal failed", logging.Error(err), logging.String("path", b.path))
				stats.Bundles++
				stats.Bytes += b.size
				continue
			}
			c.log.Info("trace retention removed bundle", logging.String("path", b.path))
			continue
		}
		stats.Bundles++
		stats.Bytes += b.size
	}

	c.mu.Lock()
	c.stats = stats
	c.mu.Unlock()
}

// Stats returns the most recent sweep's statistics.
func (c *Cleaner) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func directorySize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
