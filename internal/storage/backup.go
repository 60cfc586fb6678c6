package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrBackupExists is returned when the backup destination is already taken.
var ErrBackupExists = errors.New("backup already exists")

// BackupInfo describes a database snapshot written by Backup.
type BackupInfo struct {
	CreatedAt     time.Time
	RowCounts     map[string]int
	Path          string
	FileSize      int64
	SchemaVersion int
}

var backupTables = []string{"categories", "services", "subscriptions"}

// Backup writes a consistent copy of the database to destPath.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateBackupPath(destPath); err != nil {
		return nil, err
	}
	if _, err := os.Stat(destPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupExists, destPath)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	rowCounts, err := s.collectRowCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect row counts: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 - destPath is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return nil, fmt.Errorf("failed to back up database: %w", err)
	}

	stat, err := os.Stat(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	slog.Info("Created database backup", "path", destPath, "schema_version", version, "size", stat.Size())
	return &BackupInfo{
		CreatedAt:     time.Now(),
		RowCounts:     rowCounts,
		Path:          destPath,
		FileSize:      stat.Size(),
		SchemaVersion: version,
	}, nil
}

// MigrateWithBackup snapshots an existing database into backupDir before
// applying pending migrations. New and up-to-date stores are not backed up,
// and the returned info is nil.
func (s *SQLiteStorage) MigrateWithBackup(ctx context.Context, backupDir string) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}

	var info *BackupInfo
	if version > 0 && version < ExpectedSchemaVersion {
		name := fmt.Sprintf("pre-migrate-v%d-%s.db", version, time.Now().UTC().Format("20060102-150405"))
		info, err = s.Backup(ctx, filepath.Join(backupDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to back up before migrating: %w", err)
		}
	}

	if err := s.Migrate(ctx); err != nil {
		return info, err
	}
	return info, nil
}

func (s *SQLiteStorage) collectRowCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(backupTables))
	for _, table := range backupTables {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&exists); err != nil {
			return nil, err
		}
		if exists == 0 {
			continue
		}

		var n int
		// #nosec G202 - table names come from a fixed list
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

// validateBackupPath keeps the path safe to embed in VACUUM INTO.
func validateBackupPath(path string) error {
	if err := validateString(path, "backup path"); err != nil {
		return err
	}
	if strings.ContainsAny(path, `'";`) {
		return fmt.Errorf("invalid backup path: contains forbidden characters")
	}
	if !filepath.IsAbs(path) || strings.Contains(path, "..") {
		return fmt.Errorf("invalid backup path: must be absolute")
	}
	return nil
}
