package scheduler

import (
	"context"
	"log"
	"os"
	"time"

	"bizops_billing/internal/usecase"

	"github.com/robfig/cron/v3"
)

const defaultSweepInterval = time.Hour

// OverdueScheduler runs the overdue invoice sweep on a fixed interval. The
// interval comes from OVERDUE_SWEEP_INTERVAL (a Go duration, e.g. "15m").

type OverdueScheduler struct {
	cron    *cron.Cron
	sweeper *usecase.OverdueSweeper
}

func NewOverdueScheduler(sweeper *usecase.OverdueSweeper) *OverdueScheduler {
	return &OverdueScheduler{
		cron:    cron.New(),
		sweeper: sweeper,
	}
}

// Start schedules the sweep and fires one eager run so a restart does not
// push the next sweep a full interval out.
func (s *OverdueScheduler) Start() error {
	interval := sweepInterval()

	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		s.sweeper.Sweep(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	go s.sweeper.Sweep(context.Background())

	log.Printf("[sweep][scheduler] started interval=%s", interval)
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *OverdueScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func sweepInterval() time.Duration {
	raw := os.Getenv("OVERDUE_SWEEP_INTERVAL")
	if raw == "" {
		return defaultSweepInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("[sweep][scheduler] invalid OVERDUE_SWEEP_INTERVAL=%q, using default %s", raw, defaultSweepInterval)
		return defaultSweepInterval
	}
	return d
}
