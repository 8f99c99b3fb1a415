package backup

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func setupDataDir(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()

	_ = os.WriteFile(filepath.Join(dataDir, "auth.db"), []byte("tokens"), 0o644)
	_ = os.WriteFile(filepath.Join(dataDir, "schedules.db"), []byte("schedules"), 0o644)
	_ = os.MkdirAll(filepath.Join(dataDir, "audit"), 0o755)
	_ = os.WriteFile(filepath.Join(dataDir, "audit", "audit.log"), []byte("log line\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dataDir, "partial.tmp"), []byte("scratch"), 0o644)

	return dataDir
}

func TestManager_BackupAndRestore(t *testing.T) {
	dataDir := setupDataDir(t)

	m, err := New(Config{
		DataDir:   dataDir,
		BackupDir: filepath.Join(dataDir, "backups"),
		Retention: 5,
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	snap, err := m.Backup()
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if snap.SizeBytes == 0 {
		t.Error("snapshot should not be empty")
	}

	// Wipe a file and restore it from the snapshot.
	dbPath := filepath.Join(dataDir, "auth.db")
	if err := os.Remove(dbPath); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	if err := m.Restore(snap.Filename); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("restored file missing: %v", err)
	}
	if string(data) != "tokens" {
		t.Errorf("restored content = %q, want %q", data, "tokens")
	}
}

func TestManager_BackupSkipsTmpAndBackupDir(t *testing.T) {
	dataDir := setupDataDir(t)

	m, err := New(Config{
		DataDir:   dataDir,
		BackupDir: filepath.Join(dataDir, "backups"),
		Retention: 5,
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// First snapshot lives inside dataDir/backups; a second backup must
	// not recurse into it.
	if _, err := m.Backup(); err != nil {
		t.Fatalf("first backup failed: %v", err)
	}
	if _, err := m.Backup(); err != nil {
		t.Fatalf("second backup failed: %v", err)
	}

	// Restore into a fresh dir and check skipped entries are absent.
	restoreDir := t.TempDir()
	m2, err := New(Config{
		DataDir:   restoreDir,
		BackupDir: filepath.Join(dataDir, "backups"),
		Retention: 5,
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	snaps, err := m2.ListSnapshots()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(snaps) == 0 {
		t.Fatal("expected snapshots")
	}
	if err := m2.Restore(snaps[0].Filename); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(restoreDir, "partial.tmp")); err == nil {
		t.Error(".tmp files should not be backed up")
	}
	if _, err := os.Stat(filepath.Join(restoreDir, "backups")); err == nil {
		t.Error("backup directory should not be backed up")
	}
	if _, err := os.Stat(filepath.Join(restoreDir, "audit", "audit.log")); err != nil {
		t.Error("audit log should have been restored")
	}
}

// writeArchive creates a tar.gz with a single file entry under the
// given name, bypassing Backup so the entry name can be arbitrary.
func writeArchive(t *testing.T, path, entryName string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	content := []byte("owned")
	if err := tw.WriteHeader(&tar.Header{
		Name:     entryName,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(content)),
	}); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("failed to write entry: %v", err)
	}
	_ = tw.Close()
	_ = gw.Close()
}

func TestManager_Restore_RejectsUnsafeEntries(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := filepath.Join(dataDir, "backups")
	m, err := New(Config{DataDir: dataDir, BackupDir: backupDir})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	for _, entry := range []string{
		"../escape.txt",
		"audit/../../escape.txt",
		"/etc/escape.txt",
		"auth.db;rm -rf",
	} {
		name := "blendermcp_20240101_000000.tar.gz"
		writeArchive(t, filepath.Join(backupDir, name), entry)

		if err := m.Restore(name); err == nil {
			t.Errorf("Restore() with entry %q should fail", entry)
		}
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(dataDir), "escape.txt")); err == nil {
		t.Error("restore wrote outside the data directory")
	}
}

func TestManager_Restore_NotFound(t *testing.T) {
	dataDir := t.TempDir()
	m, err := New(Config{DataDir: dataDir, BackupDir: filepath.Join(dataDir, "backups")})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	if err := m.Restore("blendermcp_20200101_000000.tar.gz"); err == nil {
		t.Error("expected error for missing snapshot")
	}
}

func TestManager_ListSnapshots_IgnoresForeignFiles(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := filepath.Join(dataDir, "backups")
	m, err := New(Config{DataDir: dataDir, BackupDir: backupDir})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	_ = os.WriteFile(filepath.Join(backupDir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(backupDir, "other_20200101_000000.tar.gz"), []byte("x"), 0o644)

	snaps, err := m.ListSnapshots()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("expected no snapshots, got %d", len(snaps))
	}
}

func TestManager_EnforceRetention(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := filepath.Join(dataDir, "backups")
	_ = os.WriteFile(filepath.Join(dataDir, "auth.db"), []byte("tokens"), 0o644)

	m, err := New(Config{DataDir: dataDir, BackupDir: backupDir, Retention: 2})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Seed three snapshots with distinct timestamps.
	for _, ts := range []string{"20240101_000000", "20240102_000000", "20240103_000000"} {
		name := "blendermcp_" + ts + ".tar.gz"
		_ = os.WriteFile(filepath.Join(backupDir, name), []byte("snapshot"), 0o644)
	}

	m.enforceRetention()

	snaps, err := m.ListSnapshots()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots after retention, got %d", len(snaps))
	}
	for _, s := range snaps {
		if s.Filename == "blendermcp_20240101_000000.tar.gz" {
			t.Error("oldest snapshot should have been removed")
		}
	}
}
