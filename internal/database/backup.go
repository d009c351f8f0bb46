package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jetcharter/internal/config"
	"jetcharter/internal/logging"

	"github.com/rs/zerolog"
)

const (
	backupPrefix = "jetcharter_"
	backupSuffix = ".db"
)

// BackupService snapshots the account database into StoragePath on a fixed
// schedule and prunes snapshots older than RetentionDays.
type BackupService struct {
	db     *DB
	cfg    config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		db:     db,
		cfg:    cfg,
		logger: logging.Component(logger, "backup"),
		now:    time.Now,
	}
}

// Start takes a snapshot right away and then once per schedule until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}

	interval, err := time.ParseDuration(s.cfg.Schedule)
	if err != nil || interval <= 0 {
		s.logger.Warn().Err(err).Str("schedule", s.cfg.Schedule).Msg("Invalid backup schedule, using 24h")
		interval = 24 * time.Hour
	}
	s.logger.Info().Dur("interval", interval).Str("storage_path", s.cfg.StoragePath).Msg("Backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BackupService) runOnce(ctx context.Context) {
	if _, err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Backup failed")
		return
	}
	s.CleanupOldBackups()
}

// PerformBackup writes a consistent copy of the live database with VACUUM INTO
// and returns its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := backupPrefix + s.now().UTC().Format("20060102_150405") + backupSuffix
	path := filepath.Join(s.cfg.StoragePath, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("backup %s already exists", name)
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("Backup completed")
	return path, nil
}

// CleanupOldBackups removes snapshots last modified before the retention
// cutoff and reports how many were deleted. Other files are left alone.
func (s *BackupService) CleanupOldBackups() int {
	if s.cfg.RetentionDays <= 0 {
		return 0
	}

	files, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed := 0
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		info, err := file.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.StoragePath, name)); err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("Failed to delete old backup")
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Old backups deleted")
	}
	return removed
}
