package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"creatorstribe/internal/config"
	"creatorstribe/internal/creators"
)

const jobTimeout = 30 * time.Second

type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type StatsRefresher interface {
	Refresh(ctx context.Context) (creators.Stats, error)
}

// Scheduler runs periodic maintenance for the API process. Schedules use the
// six-field cron format with seconds.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.JobsConfig
	sessions SessionPurger
	stats    StatsRefresher
	log      zerolog.Logger
}

func NewScheduler(cfg config.JobsConfig, sessions SessionPurger, stats StatsRefresher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		sessions: sessions,
		stats:    stats,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the configured jobs and starts the cron loop. A blank
// schedule disables its job.
func (s *Scheduler) Start() error {
	if s.sessions != nil && s.cfg.SessionPurge != "" {
		if _, err := s.cron.AddFunc(s.cfg.SessionPurge, s.purgeSessions); err != nil {
			return err
		}
	}
	if s.stats != nil && s.cfg.StatsWarmup != "" {
		if _, err := s.cron.AddFunc(s.cfg.StatsWarmup, s.warmStats); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions failed")
		return
	}
	s.log.Info().Int64("removed", removed).Msg("expired sessions purged")
}

func (s *Scheduler) warmStats() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	stats, err := s.stats.Refresh(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stats warm-up failed")
		return
	}
	s.log.Debug().Int("total_creators", stats.TotalCreators).Msg("stats cache refreshed")
}
