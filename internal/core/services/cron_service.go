package services

import (
	"context"
	"log"
	"time"

	"unibooks/internal/adapters/persistence/repositories"
	"unibooks/internal/config"

	"github.com/robfig/cron/v3"
)

// CronService schedules the periodic jobs: the subscription sweep, the
// due-date sweep and an hourly reap of expired sessions.
type CronService struct {
	cron        *cron.Cron
	sweeps      *SweepService
	sessionRepo repositories.SessionRepository
	cfg         *config.Config
}

// NewCronService creates a new cron service
func NewCronService(cfg *config.Config, sweeps *SweepService, sessionRepo repositories.SessionRepository) *CronService {
	return &CronService{
		cron:        cron.New(),
		sweeps:      sweeps,
		sessionRepo: sessionRepo,
		cfg:         cfg,
	}
}

// Start registers and starts the scheduled jobs
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Cron.SubscriptionSweep, s.runSubscriptionSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.Cron.DueDateSweep, s.runDueDateSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.reapSessions); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("✅ Cron started (subscription sweep: %s, due-date sweep: %s)", s.cfg.Cron.SubscriptionSweep, s.cfg.Cron.DueDateSweep)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Cron stopped")
}

func (s *CronService) runSubscriptionSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.sweeps.SubscriptionSweep(ctx, time.Now()); err != nil {
		log.Printf("❌ Subscription sweep failed: %v", err)
	}
}

func (s *CronService) runDueDateSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.sweeps.DueDateSweep(ctx, time.Now()); err != nil {
		log.Printf("❌ Due-date sweep failed: %v", err)
	}
}

func (s *CronService) reapSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.sessionRepo.DeleteExpired(ctx); err != nil {
		log.Printf("⚠️ Expired session reap failed: %v", err)
	}
}
