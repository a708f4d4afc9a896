package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Purger lo cumple notification.Service.
type Purger interface {
	PurgeRead(ctx context.Context, retention time.Duration) (int64, error)
}

// Scheduler tareas periódicas del proceso (hoy: purga de notificaciones leídas).
type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration
}

// New crea el scheduler. Una ejecución no se solapa con la anterior del mismo job.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		log:     log.Component("scheduler"),
		timeout: time.Minute,
	}
}

// AddPurgeJob programa la purga según schedule (formato cron de 5 campos).
func (s *Scheduler) AddPurgeJob(schedule string, p Purger, retention time.Duration) error {
	_, err := s.cron.AddFunc(schedule, func() { s.runPurge(p, retention) })
	if err != nil {
		return fmt.Errorf("programar purga %q: %w", schedule, err)
	}
	return nil
}

func (s *Scheduler) runPurge(p Purger, retention time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := p.PurgeRead(ctx, retention); err != nil {
		s.log.Error().Err(err).Msg("purga de notificaciones falló")
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop detiene el cron y espera a los jobs en curso o a que ctx venza.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
