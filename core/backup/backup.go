package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Layr-Labs/eigensdk-go/logging"
)

// Source is anything that can stream a full snapshot of itself.
type Source interface {
	Backup(ctx context.Context, w io.Writer) error
	// BackupFileName is the file name used inside a timestamped backup dir.
	BackupFileName() string
}

type Service struct {
	logger        logging.Logger
	source        Source
	backupDir     string
	backupEnabled bool
	interval      time.Duration
	stop          chan struct{}
}

func NewService(logger logging.Logger, source Source, backupDir string) *Service {
	return &Service{
		logger:        logger,
		source:        source,
		backupDir:     backupDir,
		backupEnabled: false,
		stop:          make(chan struct{}),
	}
}

func (s *Service) StartPeriodicBackup(interval time.Duration) error {
	if s.backupEnabled {
		return fmt.Errorf("backup service already running")
	}

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	s.interval = interval
	s.backupEnabled = true

	go s.backupLoop()

	s.logger.Infof("Started periodic backup every %v to %s", interval, s.backupDir)
	return nil
}

func (s *Service) StopPeriodicBackup() {
	if !s.backupEnabled {
		return
	}

	s.backupEnabled = false
	close(s.stop)
	s.logger.Infof("Stopped periodic backup")
}

func (s *Service) backupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if backupFile, err := s.PerformBackup(context.Background()); err != nil {
				s.logger.Errorf("Periodic backup failed: %v", err)
			} else {
				s.logger.Infof("Periodic backup completed successfully to %s", backupFile)
			}
		case <-s.stop:
			return
		}
	}
}

// PerformBackup writes a full snapshot to backupDir/yy-mm-dd-hh-mm-ss/ and
// returns the file path.
func (s *Service) PerformBackup(ctx context.Context) (string, error) {
	timestamp := time.Now().Format("06-01-02-15-04-05")
	backupPath := filepath.Join(s.backupDir, timestamp)

	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup timestamp directory: %w", err)
	}

	backupFile := filepath.Join(backupPath, s.source.BackupFileName())
	f, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	s.logger.Infof("Running backup to %s", backupFile)
	if err := s.source.Backup(ctx, f); err != nil {
		return "", fmt.Errorf("backup operation failed: %w", err)
	}

	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("failed to flush backup file: %w", err)
	}

	s.logger.Infof("Backup completed successfully to %s", backupFile)
	return backupFile, nil
}
