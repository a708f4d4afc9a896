package inventory_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

type hookFunc struct {
	name string
	fn   func(ctx context.Context, ev inventory.TransactionCommitted) error
}

func (h hookFunc) Name() string { return h.name }
func (h hookFunc) AfterCommit(ctx context.Context, ev inventory.TransactionCommitted) error {
	return h.fn(ctx, ev)
}

// syncBuffer evita carreras entre las goroutines del dispatcher y el test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func committedEvent() inventory.TransactionCommitted {
	return inventory.TransactionCommitted{Transaction: &entity.Transaction{ID: "tx-1", CompanyID: companyID}}
}

func TestDispatcher_ContextoDesligadoDelRequest(t *testing.T) {
	var sawCanceled atomic.Bool
	hook := hookFunc{name: "espera", fn: func(ctx context.Context, _ inventory.TransactionCommitted) error {
		time.Sleep(20 * time.Millisecond)
		sawCanceled.Store(ctx.Err() != nil)
		return nil
	}}
	d := inventory.NewDispatcher(logger.Nop(), time.Second, hook)

	reqCtx, cancel := context.WithCancel(context.Background())
	d.Publish(reqCtx, committedEvent())
	cancel() // el request termina antes que el hook
	d.Wait()

	assert.False(t, sawCanceled.Load(), "cancelar el request no debe cancelar el hook")
}

func TestDispatcher_ErrorYPanicoSoloSeRegistran(t *testing.T) {
	var buf syncBuffer
	var okRuns atomic.Int32
	d := inventory.NewDispatcher(logger.NewWithWriter(&buf, "info"), time.Second,
		hookFunc{name: "falla", fn: func(context.Context, inventory.TransactionCommitted) error {
			return errors.New("redis caído")
		}},
		hookFunc{name: "panico", fn: func(context.Context, inventory.TransactionCommitted) error {
			panic("boom")
		}},
		hookFunc{name: "ok", fn: func(context.Context, inventory.TransactionCommitted) error {
			okRuns.Add(1)
			return nil
		}},
	)

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), committedEvent())
		d.Wait()
	})
	assert.Equal(t, int32(1), okRuns.Load())
	out := buf.String()
	assert.Contains(t, out, "redis caído")
	assert.Contains(t, out, "pánico en hook post-commit")
	assert.Contains(t, out, `"transaction_id":"tx-1"`)
}

func TestDispatcher_TimeoutAcotaElHook(t *testing.T) {
	var deadlineHit atomic.Bool
	d := inventory.NewDispatcher(logger.Nop(), 10*time.Millisecond, hookFunc{name: "lento", fn: func(ctx context.Context, _ inventory.TransactionCommitted) error {
		<-ctx.Done()
		deadlineHit.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	}})
	d.Publish(context.Background(), committedEvent())
	d.Wait()
	assert.True(t, deadlineHit.Load())
}

func TestDispatcher_CloseEsperaYDescartaNuevos(t *testing.T) {
	var runs atomic.Int32
	d := inventory.NewDispatcher(logger.Nop(), time.Second, hookFunc{name: "cuenta", fn: func(context.Context, inventory.TransactionCommitted) error {
		time.Sleep(10 * time.Millisecond)
		runs.Add(1)
		return nil
	}})
	d.Publish(context.Background(), committedEvent())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, int32(1), runs.Load(), "Close espera a los hooks en curso")

	d.Publish(context.Background(), committedEvent())
	d.Wait()
	assert.Equal(t, int32(1), runs.Load(), "tras Close no se ejecutan hooks nuevos")
}

func TestEngine_HookLentoNoRetrasaRespuesta(t *testing.T) {
	f := newFixture(t, 1000, 500)
	release := make(chan struct{})
	d := inventory.NewDispatcher(logger.Nop(), time.Second, hookFunc{name: "bloqueado", fn: func(ctx context.Context, _ inventory.TransactionCommitted) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}})
	engine := inventory.NewEngine(f.store, d)

	done := make(chan error, 1)
	go func() {
		_, err := engine.CreateTransaction(context.Background(), inventory.CreateTransactionInput{
			CompanyID: companyID, ActorID: actorID, Type: entity.TransactionInbound,
			Lines: []inventory.LineInput{{WarehouseID: whA, ItemID: itemX, Quantity: dec(1)}},
		})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("la respuesta no debe esperar al hook")
	}
	close(release)
	d.Wait()
}
