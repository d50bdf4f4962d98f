package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// -----------------------------------------------------------------------------
// Maintenance operations on the store file. Both are blocking and
// synchronous.
// -----------------------------------------------------------------------------

// Backup copies the store file to targetDir with a timestamp-suffixed name
// and returns the resulting path. Fails when the source file is missing.
func (s *Store) Backup(targetDir string) (string, error) {
	src := s.Path()

	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("database file not found at %s: %w", src, err)
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Flush the WAL so the main file holds everything before copying.
	if s.db != nil {
		if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
			s.Logger.Warning("WAL checkpoint before backup failed: %v", err)
		}
	}

	stamp := time.Now().Format("20060102_150405")
	dst := filepath.Join(targetDir, fmt.Sprintf("finance_%s.db", stamp))

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("failed to copy database file: %w", err)
	}

	s.Logger.Info("Backup written to %s", dst)
	return dst, nil
}

// -----------------------------------------------------------------------------

// Vacuum reclaims space and refreshes planner statistics in place.
func (s *Store) Vacuum() error {
	if err := s.Connect(); err != nil {
		return err
	}

	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if _, err := s.db.Exec("ANALYZE"); err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	s.Logger.Info("Vacuum completed")
	return nil
}
