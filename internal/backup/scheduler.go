package backup

import (
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"tracer/internal/backup/interfaces"
	"tracer/internal/providers"
	"tracer/internal/structures"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

// Init starts periodic backups. Without a file path or interval it does
// nothing. gron ticks in whole seconds, shorter intervals run every second.
func (s *Scheduler) Init() {
	interval := s.config.Backup.Interval
	if s.config.Backup.FilePath == "" || interval <= 0 {
		s.logger.Infof(providers.TypeBackup, "Periodic backups disabled")
		return
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(interval), func() {
		if err := s.Persist(); err == nil {
			s.logger.Infof(providers.TypeBackup, "Persisted data to file %s", s.config.Backup.FilePath)
		}
	})
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

func (s *Scheduler) Persist() error {
	if s.config.Backup.FilePath == "" {
		return nil
	}

	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.fileManager.SaveToFile(context.Background(), s.config.Backup.FilePath)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		s.logger.Errorf(providers.TypeBackup, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
