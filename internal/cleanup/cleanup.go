// Package cleanup provides background maintenance of the data directory.
package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
)

// ExecutionPruner removes schedule execution records older than a cutoff.
type ExecutionPruner interface {
	PruneExecutions(cutoff time.Time) (int64, error)
}

// Cleaner performs periodic maintenance of the data directory: orphaned
// temp files, stale render output, old schedule execution records, and
// disk usage monitoring.
type Cleaner struct {
	dataDir   string
	interval  time.Duration
	retention time.Duration
	diskWarn  float64
	diskError float64
	pruner    ExecutionPruner
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Config holds cleanup configuration.
type Config struct {
	DataDir          string
	Interval         time.Duration // How often to run cleanup
	Retention        time.Duration // How long to keep temp files and execution records
	DiskWarnPercent  float64       // Warn at this disk usage percentage
	DiskErrorPercent float64       // Error at this disk usage percentage
	Pruner           ExecutionPruner
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:          dataDir,
		Interval:         5 * time.Minute,
		Retention:        1 * time.Hour,
		DiskWarnPercent:  80.0,
		DiskErrorPercent: 90.0,
	}
}

// New creates a new Cleaner with the given configuration.
func New(cfg Config) *Cleaner {
	return &Cleaner{
		dataDir:   cfg.DataDir,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		diskWarn:  cfg.DiskWarnPercent,
		diskError: cfg.DiskErrorPercent,
		pruner:    cfg.Pruner,
	}
}

// Start begins the periodic cleanup loop.
func (c *Cleaner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		// Run immediately on start
		c.runCleanup()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.runCleanup()
			}
		}
	}()

	logger.Printf("Cleanup started (interval=%v, retention=%v)", c.interval, c.retention)
}

// Stop halts the cleanup loop.
func (c *Cleaner) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.wg.Wait()
		logger.Println("Cleanup stopped")
	}
}

// runCleanup performs all cleanup tasks.
func (c *Cleaner) runCleanup() {
	c.cleanupTmpFiles()
	c.cleanupRenderOutput()
	c.pruneExecutions()
	c.checkDiskUsage()
}

// cleanupTmpFiles removes orphaned .tmp files older than retention.
func (c *Cleaner) cleanupTmpFiles() {
	cutoff := time.Now().Add(-c.retention)
	var removed int

	err := filepath.Walk(c.dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if !info.IsDir() && strings.HasSuffix(info.Name(), ".tmp") {
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(path); err == nil {
					removed++
				}
			}
		}
		return nil
	})

	if err != nil {
		logger.Printf("Cleanup walk error: %v", err)
	}
	if removed > 0 {
		logger.Printf("Removed %d orphaned .tmp files", removed)
	}
}

// cleanupRenderOutput removes downloaded render and preview images in
// data/renders older than retention. Renders the operator wants to keep
// belong outside the data directory.
func (c *Cleaner) cleanupRenderOutput() {
	rendersDir := filepath.Join(c.dataDir, "renders")
	entries, err := os.ReadDir(rendersDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-c.retention)
	var removed int

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".png") && !strings.HasSuffix(name, ".jpg") && !strings.HasSuffix(name, ".exr") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rendersDir, name)); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		logger.Printf("Removed %d old render files", removed)
	}
}

// pruneExecutions removes schedule execution records older than retention.
func (c *Cleaner) pruneExecutions() {
	if c.pruner == nil {
		return
	}

	cutoff := time.Now().Add(-c.retention)
	pruned, err := c.pruner.PruneExecutions(cutoff)
	if err != nil {
		logger.Printf("Execution prune error: %v", err)
		return
	}
	if pruned > 0 {
		logger.Printf("Pruned %d old schedule executions", pruned)
	}
}

// checkDiskUsage monitors disk usage and logs warnings.
func (c *Cleaner) checkDiskUsage() {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(c.dataDir, &stat); err != nil {
		return
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	used := total - free
	usedPercent := float64(used) / float64(total) * 100

	if usedPercent >= c.diskError {
		logger.Printf("CRITICAL: Disk usage at %.1f%% (data dir)", usedPercent)
	} else if usedPercent >= c.diskWarn {
		logger.Printf("WARNING: Disk usage at %.1f%% (data dir)", usedPercent)
	}
}

// DiskUsage returns current disk usage stats.
func (c *Cleaner) DiskUsage() (usedBytes, totalBytes uint64, usedPercent float64, err error) {
	var stat syscall.Statfs_t
	if err = syscall.Statfs(c.dataDir, &stat); err != nil {
		return
	}

	totalBytes = stat.Blocks * uint64(stat.Bsize)
	freeBytes := stat.Bfree * uint64(stat.Bsize)
	usedBytes = totalBytes - freeBytes
	usedPercent = float64(usedBytes) / float64(totalBytes) * 100
	return
}
