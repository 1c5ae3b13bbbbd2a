package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"lingotrack/internal/logging"
	"lingotrack/internal/repository"
	"lingotrack/internal/service"
)

// Scheduler runs the periodic progress-cache sweep. The cache is a derived
// view, so a sweep that repairs stale entries in the background keeps reads
// cheap without any write-path bookkeeping.
type Scheduler struct {
	scheduler *gocron.Scheduler
	progress  *service.ProgressService
	repo      *repository.ProgressRepository
	interval  time.Duration
	log       *logging.Logger
}

// New creates a scheduler sweeping the progress cache at the given interval
func New(progress *service.ProgressService, repo *repository.ProgressRepository, interval time.Duration, log *logging.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		progress:  progress,
		repo:      repo,
		interval:  interval,
		log:       log,
	}
}

// Start begins the sweep in the background
func (s *Scheduler) Start() {
	s.scheduler.Every(s.interval).Do(s.sweep)
	s.scheduler.StartAsync()
}

// Stop terminates the scheduled sweep
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// sweep refreshes every (user, group) pair present in the cache. Per-group
// failures are logged and the sweep moves on.
func (s *Scheduler) sweep() {
	pairs, err := s.repo.UserGroups()
	if err != nil {
		s.log.Error("progress sweep failed to list cache entries", "error", err)
		return
	}

	refreshed := 0
	for _, pair := range pairs {
		failed, err := s.progress.RefreshGroup(pair.UserID, pair.GroupID)
		if err != nil {
			s.log.Warn("progress sweep failed for group",
				"user", pair.UserID, "group", pair.GroupID, "error", err)
			continue
		}
		if len(failed) > 0 {
			s.log.Warn("progress sweep skipped stale levels",
				"user", pair.UserID, "group", pair.GroupID, "failed_levels", len(failed))
		}
		refreshed++
	}

	s.log.Debug("progress sweep finished", "groups", len(pairs), "refreshed", refreshed)
}
