package cleanup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/test/data")

	if cfg.DataDir != "/test/data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/test/data")
	}
	if cfg.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want %v", cfg.Interval, 5*time.Minute)
	}
	if cfg.Retention != 1*time.Hour {
		t.Errorf("Retention = %v, want %v", cfg.Retention, 1*time.Hour)
	}
	if cfg.DiskWarnPercent != 80.0 {
		t.Errorf("DiskWarnPercent = %f, want 80.0", cfg.DiskWarnPercent)
	}
	if cfg.DiskErrorPercent != 90.0 {
		t.Errorf("DiskErrorPercent = %f, want 90.0", cfg.DiskErrorPercent)
	}
}

func TestCleaner_StartStop(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Interval = 100 * time.Millisecond

	cleaner := New(cfg)
	cleaner.Start()

	// Give it time to run at least once
	time.Sleep(150 * time.Millisecond)

	cleaner.Stop()
}

func TestCleaner_CleanupTmpFiles(t *testing.T) {
	tmpDir := t.TempDir()

	oldTmpFile := filepath.Join(tmpDir, "old.tmp")
	newTmpFile := filepath.Join(tmpDir, "new.tmp")
	regularFile := filepath.Join(tmpDir, "auth.db")

	_ = os.WriteFile(oldTmpFile, []byte("old"), 0o644)
	_ = os.WriteFile(newTmpFile, []byte("new"), 0o644)
	_ = os.WriteFile(regularFile, []byte("keep"), 0o644)

	oldTime := time.Now().Add(-2 * time.Hour)
	_ = os.Chtimes(oldTmpFile, oldTime, oldTime)

	cfg := DefaultConfig(tmpDir)
	cleaner := New(cfg)
	cleaner.cleanupTmpFiles()

	if _, err := os.Stat(oldTmpFile); !errors.Is(err, fs.ErrNotExist) {
		t.Error("old .tmp file should have been removed")
	}
	if _, err := os.Stat(newTmpFile); err != nil {
		t.Error("new .tmp file should still exist")
	}
	if _, err := os.Stat(regularFile); err != nil {
		t.Error("regular file should still exist")
	}
}

func TestCleaner_CleanupTmpFiles_Nested(t *testing.T) {
	tmpDir := t.TempDir()

	nestedDir := filepath.Join(tmpDir, "renders", "scratch")
	_ = os.MkdirAll(nestedDir, 0o755)

	nestedTmpFile := filepath.Join(nestedDir, "partial.tmp")
	_ = os.WriteFile(nestedTmpFile, []byte("nested"), 0o644)

	oldTime := time.Now().Add(-2 * time.Hour)
	_ = os.Chtimes(nestedTmpFile, oldTime, oldTime)

	cleaner := New(DefaultConfig(tmpDir))
	cleaner.cleanupTmpFiles()

	if _, err := os.Stat(nestedTmpFile); !errors.Is(err, fs.ErrNotExist) {
		t.Error("nested old .tmp file should have been removed")
	}
}

func TestCleaner_CleanupRenderOutput(t *testing.T) {
	tmpDir := t.TempDir()
	rendersDir := filepath.Join(tmpDir, "renders")
	_ = os.MkdirAll(rendersDir, 0o755)

	oldRender := filepath.Join(rendersDir, "frame_0001.png")
	newRender := filepath.Join(rendersDir, "frame_0002.png")
	oldText := filepath.Join(rendersDir, "notes.txt")

	_ = os.WriteFile(oldRender, []byte("png"), 0o644)
	_ = os.WriteFile(newRender, []byte("png"), 0o644)
	_ = os.WriteFile(oldText, []byte("keep"), 0o644)

	oldTime := time.Now().Add(-2 * time.Hour)
	_ = os.Chtimes(oldRender, oldTime, oldTime)
	_ = os.Chtimes(oldText, oldTime, oldTime)

	cleaner := New(DefaultConfig(tmpDir))
	cleaner.cleanupRenderOutput()

	if _, err := os.Stat(oldRender); !errors.Is(err, fs.ErrNotExist) {
		t.Error("old render should have been removed")
	}
	if _, err := os.Stat(newRender); err != nil {
		t.Error("new render should still exist")
	}
	if _, err := os.Stat(oldText); err != nil {
		t.Error("non-image file should still exist")
	}
}

type fakePruner struct {
	pruned int64
	cutoff time.Time
	err    error
}

func (f *fakePruner) PruneExecutions(cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.pruned, f.err
}

func TestCleaner_PruneExecutions(t *testing.T) {
	pruner := &fakePruner{pruned: 3}

	cfg := DefaultConfig(t.TempDir())
	cfg.Pruner = pruner

	cleaner := New(cfg)
	cleaner.pruneExecutions()

	if pruner.cutoff.IsZero() {
		t.Error("pruner should have been called with a cutoff")
	}
	if time.Since(pruner.cutoff) < 59*time.Minute {
		t.Errorf("cutoff should be about an hour ago, got %v", pruner.cutoff)
	}
}

func TestCleaner_PruneExecutions_NoPruner(t *testing.T) {
	cleaner := New(DefaultConfig(t.TempDir()))

	// Should be a no-op without a pruner
	cleaner.pruneExecutions()
}

func TestCleaner_DiskUsage(t *testing.T) {
	cleaner := New(DefaultConfig(t.TempDir()))
	used, total, percent, err := cleaner.DiskUsage()

	if err != nil {
		t.Fatalf("DiskUsage() error = %v", err)
	}
	if total == 0 {
		t.Error("total bytes should be > 0")
	}
	if used > total {
		t.Error("used bytes should be <= total bytes")
	}
	if percent < 0 || percent > 100 {
		t.Errorf("percent = %f, should be between 0 and 100", percent)
	}
}

func TestCleaner_DiskUsage_InvalidPath(t *testing.T) {
	cleaner := New(DefaultConfig("/nonexistent/path/that/does/not/exist"))

	if _, _, _, err := cleaner.DiskUsage(); err == nil {
		t.Error("expected error for nonexistent path")
	}
}

func TestCleaner_RunCleanup(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Pruner = &fakePruner{}

	cleaner := New(cfg)

	// Should run all cleanup tasks without panic
	cleaner.runCleanup()
}
