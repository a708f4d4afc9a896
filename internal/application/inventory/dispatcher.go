package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Dispatcher ejecuta los hooks post-commit en goroutines, con un contexto desligado
// del request y acotado por timeout. Un hook que falla o entra en pánico solo se registra.
type Dispatcher struct {
	hooks   []PostCommitHook
	timeout time.Duration
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ EventPublisher = (*Dispatcher)(nil)

// NewDispatcher construye el dispatcher con los hooks indicados.
func NewDispatcher(log *logger.Logger, timeout time.Duration, hooks ...PostCommitHook) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{hooks: hooks, timeout: timeout, log: log.Component("post_commit")}
}

// Publish lanza cada hook y retorna de inmediato.
func (d *Dispatcher) Publish(ctx context.Context, ev TransactionCommitted) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("transaction_id", ev.Transaction.ID).Msg("dispatcher cerrado, evento descartado")
		return
	}
	base := context.WithoutCancel(ctx)
	for _, h := range d.hooks {
		d.wg.Add(1)
		go d.run(base, h, ev)
	}
}

func (d *Dispatcher) run(ctx context.Context, h PostCommitHook, ev TransactionCommitted) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("hook", h.Name()).
				Str("transaction_id", ev.Transaction.ID).
				Interface("panic", r).
				Msg("pánico en hook post-commit")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := h.AfterCommit(ctx, ev); err != nil {
		d.log.Error().Err(err).
			Str("hook", h.Name()).
			Str("transaction_id", ev.Transaction.ID).
			Msg("hook post-commit falló")
		return
	}
	d.log.Debug().
		Str("hook", h.Name()).
		Str("transaction_id", ev.Transaction.ID).
		Dur("elapsed", time.Since(start)).
		Msg("hook post-commit ok")
}

// Wait bloquea hasta que terminen los hooks en curso.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close deja de aceptar eventos y espera los pendientes hasta que ctx expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
