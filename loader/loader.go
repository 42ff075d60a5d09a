// Package loader executes the loads requested by execute signals.
//
// Attach installs store middleware for one family. Each folded execute
// signal starts the fetcher in its own goroutine, and the fetcher's outcome
// comes back as exactly one success or failed signal carrying the execute
// signal's params. Retries, deduplication and cancellation are left to the
// fetcher.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/on-the-ground/loadable_go/signal"
	"github.com/on-the-ground/loadable_go/store"
	"go.uber.org/zap"
)

// Fetcher performs the I/O for one load.
type Fetcher[R, P any] func(ctx context.Context, params P) (R, error)

// Loader runs fetches for the families attached to one store.
type Loader struct {
	store  *store.Store
	logger *zap.Logger
	wg     sync.WaitGroup
}

func New(s *store.Store) *Loader {
	return &Loader{
		store:  s,
		logger: s.Logger().With(zap.String("component", "loader")),
	}
}

// Wait blocks until every started fetch has dispatched its terminal signal.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Attach makes l answer the execute signals of family with fetch.
func Attach[R, P any](l *Loader, family signal.Family[R, P], fetch Fetcher[R, P]) {
	l.store.Use(func(ctx context.Context, sig signal.Signal, applied bool) {
		exec, ok := sig.(signal.Execute[R, P])
		if !ok || !applied || !family.Owns(sig) {
			return
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			run(ctx, l, family, fetch, exec)
		}()
	})
}

func run[R, P any](
	ctx context.Context,
	l *Loader,
	family signal.Family[R, P],
	fetch Fetcher[R, P],
	exec signal.Execute[R, P],
) {
	data, err := safeFetch(ctx, fetch, exec.Params)

	var terminal signal.Signal
	if err != nil {
		l.logger.Info("load failed",
			zap.String("family", family.Name()),
			zap.Any("params", exec.Params),
			zap.Error(err),
		)
		terminal = family.Failed.Of(signal.Errored(exec.Params, err))
	} else {
		terminal = family.Success.Of(signal.Succeeded(data, exec.Params))
	}

	if err := l.store.Dispatch(ctx, terminal); err != nil {
		l.logger.Error("fail to dispatch terminal signal",
			zap.String("family", family.Name()),
			zap.String("type", string(terminal.SignalType())),
			zap.Error(err),
		)
	}
}

func safeFetch[R, P any](ctx context.Context, fetch Fetcher[R, P], params P) (data R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFetchPanicked, r)
		}
	}()
	return fetch(ctx, params)
}

var ErrFetchPanicked = errors.New("loader: fetch panicked")
