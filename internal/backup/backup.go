// Package backup provides snapshot and restore of the data directory.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
)

const snapshotPrefix = "blendermcp"

// Manager handles backup and restore of the data directory, which holds
// the token and schedule databases plus audit logs.
type Manager struct {
	dataDir   string
	backupDir string
	retention int
	interval  time.Duration
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Config holds backup configuration.
type Config struct {
	DataDir   string
	BackupDir string
	Retention int           // Number of snapshots to keep
	Interval  time.Duration // How often to run backups (0 = disabled)
}

// Snapshot represents a backup snapshot.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
}

// New creates a new backup Manager.
func New(cfg Config) (*Manager, error) {
	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Manager{
		dataDir:   cfg.DataDir,
		backupDir: cfg.BackupDir,
		retention: cfg.Retention,
		interval:  cfg.Interval,
	}, nil
}

// Start begins periodic backup if interval > 0.
func (m *Manager) Start() {
	if m.interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Backup(); err != nil {
					logger.Printf("Backup failed: %v", err)
				}
			}
		}
	}()

	logger.Printf("Backup automation started (interval=%v, retention=%d)", m.interval, m.retention)
}

// Stop halts periodic backup.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
		m.wg.Wait()
		logger.Println("Backup automation stopped")
	}
}

// Backup creates a tar.gz snapshot of the data directory. The backup
// directory itself, sockets, and in-flight .tmp files are skipped.
func (m *Manager) Backup() (*Snapshot, error) {
	if _, err := os.Stat(m.dataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("data directory not found: %s", m.dataDir)
	}

	timestamp := time.Now()
	filename := fmt.Sprintf("%s_%s.tar.gz", snapshotPrefix, timestamp.Format("20060102_150405"))
	backupPath := filepath.Join(m.backupDir, filename)

	file, err := os.Create(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() { _ = file.Close() }()

	gw := gzip.NewWriter(file)
	defer func() { _ = gw.Close() }()

	tw := tar.NewWriter(gw)
	defer func() { _ = tw.Close() }()

	absBackupDir, _ := filepath.Abs(m.backupDir)

	err = filepath.Walk(m.dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// The backup directory commonly lives inside the data directory.
		if absPath, aerr := filepath.Abs(path); aerr == nil && absPath == absBackupDir {
			return filepath.SkipDir
		}

		if info.Mode()&os.ModeSocket != 0 {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".tmp") {
			return nil
		}

		relPath, err := filepath.Rel(m.dataDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = relPath

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if !info.IsDir() {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			if _, err := io.Copy(tw, f); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		_ = os.Remove(backupPath)
		return nil, fmt.Errorf("failed to create backup: %w", err)
	}

	stat, _ := os.Stat(backupPath)

	snapshot := &Snapshot{
		Timestamp: timestamp,
		Filename:  filename,
		SizeBytes: stat.Size(),
	}

	logger.Printf("Created backup: %s (%d bytes)", filename, stat.Size())

	m.enforceRetention()

	return snapshot, nil
}

// Restore unpacks a snapshot into the data directory, overwriting
// existing files. The server should not be running.
func (m *Manager) Restore(filename string) error {
	backupPath := filepath.Join(m.backupDir, filename)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup not found: %s", filename)
	}

	file, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() { _ = file.Close() }()

	gr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to decompress backup: %w", err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(gr)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read backup: %w", err)
		}

		// Reject entries that would escape the data directory.
		name, err := validation.SanitizePath(header.Name)
		if err != nil {
			return fmt.Errorf("invalid entry in backup: %w", err)
		}
		targetPath := filepath.Join(m.dataDir, name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}
			f, err := os.Create(targetPath)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to write file: %w", err)
			}
			_ = f.Close()
		}
	}

	logger.Printf("Restored from backup: %s", filename)
	return nil
}

// ListSnapshots returns all available snapshots, newest first.
func (m *Manager) ListSnapshots() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tar.gz") {
			continue
		}

		// Parse filename: blendermcp_YYYYMMDD_HHMMSS.tar.gz
		name := strings.TrimSuffix(entry.Name(), ".tar.gz")
		parts := strings.Split(name, "_")
		if len(parts) < 3 || parts[0] != snapshotPrefix {
			continue
		}

		dateStr := parts[len(parts)-2] + "_" + parts[len(parts)-1]
		timestamp, err := time.Parse("20060102_150405", dateStr)
		if err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		snapshots = append(snapshots, Snapshot{
			Timestamp: timestamp,
			Filename:  entry.Name(),
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})

	return snapshots, nil
}

// enforceRetention removes old snapshots beyond the retention limit.
func (m *Manager) enforceRetention() {
	if m.retention <= 0 {
		return
	}

	snapshots, err := m.ListSnapshots()
	if err != nil {
		return
	}

	if len(snapshots) <= m.retention {
		return
	}

	for i := m.retention; i < len(snapshots); i++ {
		backupPath := filepath.Join(m.backupDir, snapshots[i].Filename)
		if err := os.Remove(backupPath); err == nil {
			logger.Printf("Removed old backup: %s", snapshots[i].Filename)
		}
	}
}

// ExportManifest creates a JSON manifest of all snapshots.
func (m *Manager) ExportManifest() ([]byte, error) {
	snapshots, err := m.ListSnapshots()
	if err != nil {
		return nil, err
	}

	manifest := struct {
		ExportedAt time.Time  `json:"exported_at"`
		BackupDir  string     `json:"backup_dir"`
		Snapshots  []Snapshot `json:"snapshots"`
	}{
		ExportedAt: time.Now(),
		BackupDir:  m.backupDir,
		Snapshots:  snapshots,
	}

	return json.MarshalIndent(manifest, "", "  ")
}
