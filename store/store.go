// Package store is a small dispatch runtime for resource slots.
//
// A Store owns one signal.Registry and one slot per registered family.
// Dispatched signals are folded by a partitioned worker pool: all signals of
// a family go to the same worker, so they are folded in dispatch order and a
// slot never sees two writers. After each fold the store publishes a Change
// on Source and runs the installed middleware, which is where executors such
// as package loader start the actual I/O.
//
//	s := store.New(ctx, config.NewStoreConfig(8, 4, 64))
//	defer s.Close()
//
//	users, _ := store.Define[[]User, signal.Void](s, "Users", resource.Initial[[]User, signal.Void](nil))
//	_ = s.Dispatch(ctx, users.Execute.Of(signal.NoParams))
//	state, _ := store.Select(s, users)
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/on-the-ground/loadable_go/config"
	"github.com/on-the-ground/loadable_go/fold"
	"github.com/on-the-ground/loadable_go/resource"
	"github.com/on-the-ground/loadable_go/shared/helper"
	"github.com/on-the-ground/loadable_go/signal"
	"github.com/on-the-ground/loadable_go/store/internal/dispatch"
	"go.uber.org/zap"
)

var (
	ErrClosed           = errors.New("store: closed")
	ErrNilSignal        = errors.New("store: nil signal")
	ErrUnknownFamily    = errors.New("store: unknown signal family")
	ErrForeignFamily    = errors.New("store: family defined in another registry")
	ErrSlotExists       = errors.New("store: slot already registered")
	ErrSlotTypeMismatch = errors.New("store: slot registered with other types")
)

// Middleware runs on a store worker after every fold. It must not block on
// the store; start a goroutine to dispatch follow-up signals.
type Middleware func(ctx context.Context, sig signal.Signal, applied bool)

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRepo replaces the in-memory slot repository.
func WithRepo(repo Repo) Option {
	return func(s *Store) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithRegistry makes the store define families in reg.
func WithRegistry(reg *signal.Registry) Option {
	return func(s *Store) {
		if reg != nil {
			s.registry = reg
		}
	}
}

type Store struct {
	id       string
	registry *signal.Registry
	repo     Repo
	slots    sync.Map // family name -> slot
	logger   *zap.Logger

	mu         sync.RWMutex
	middleware []Middleware

	queue  *dispatch.Queue[envelope]
	source chan Change
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	once   sync.Once
}

// New starts a store whose workers live until Close is called or ctx is done.
func New(ctx context.Context, cfg config.StoreConfig, opts ...Option) *Store {
	cfg = config.NewStoreConfig(cfg.BufferSize, cfg.NumWorkers, cfg.SourceSize)
	s := &Store{
		id:     uuid.New().String(),
		repo:   NewInMemoryRepo(),
		logger: zap.NewNop(),
		source: make(chan Change, cfg.SourceSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = signal.NewRegistry(signal.WithLogger(s.logger))
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.queue = dispatch.NewPartitionedQueue(s.ctx, cfg.NumWorkers, cfg.BufferSize, s.handle)
	s.logger.Debug("created store",
		zap.String("storeId", s.id),
		zap.Int("numWorkers", cfg.NumWorkers),
		zap.Int("bufferSize", cfg.BufferSize),
	)
	return s
}

func (s *Store) ID() string                 { return s.id }
func (s *Store) Registry() *signal.Registry { return s.registry }
func (s *Store) Logger() *zap.Logger        { return s.logger }

// Source returns the change feed. Changes are dropped when nobody reads it.
// The channel is closed by Close.
func (s *Store) Source() <-chan Change { return s.source }

// Use appends middleware.
func (s *Store) Use(mw Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, mw)
}

// Close stops the workers and closes Source. Later dispatches fail with
// ErrClosed.
func (s *Store) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.queue.Wait()
		close(s.source)
		s.logger.Debug("closed store", zap.String("storeId", s.id))
	})
}

// Register adds the slot of family, seeded with initial. The family must
// have been defined in the store's registry.
func Register[R, P any](s *Store, family signal.Family[R, P], initial resource.State[R, P], opts ...fold.Option[R, P]) error {
	if id, ok := s.registry.IDOf(family.Name()); !ok || id != family.ID() {
		return fmt.Errorf("%w: %q", ErrForeignFamily, family.Name())
	}
	sl := &typedSlot[R, P]{reducer: fold.NewReducer(family, opts...)}
	if _, loaded := s.slots.LoadOrStore(family.Name(), sl); loaded {
		return fmt.Errorf("%w: %q", ErrSlotExists, family.Name())
	}
	if err := s.repo.Store(family.Name(), initial); err != nil {
		s.slots.Delete(family.Name())
		return fmt.Errorf("store initial state of %q: %w", family.Name(), err)
	}
	s.logger.Debug("registered slot",
		zap.String("storeId", s.id),
		zap.String("family", family.Name()),
		zap.String("familyId", family.ID()),
	)
	return nil
}

// Define defines a family in the store's registry and registers its slot.
func Define[R, P any](s *Store, name string, initial resource.State[R, P], opts ...fold.Option[R, P]) (signal.Family[R, P], error) {
	family, err := signal.Define[R, P](s.registry, name)
	if err != nil {
		return signal.Family[R, P]{}, err
	}
	if err := Register(s, family, initial, opts...); err != nil {
		return signal.Family[R, P]{}, err
	}
	return family, nil
}

// Select returns the current state of family's slot.
func Select[R, P any](s *Store, family signal.Family[R, P]) (resource.State[R, P], error) {
	raw, ok := s.slots.Load(family.Name())
	if !ok {
		return resource.State[R, P]{}, fmt.Errorf("%w: %q", ErrUnknownFamily, family.Name())
	}
	if _, ok := raw.(*typedSlot[R, P]); !ok {
		return resource.State[R, P]{}, fmt.Errorf("%w: %q", ErrSlotTypeMismatch, family.Name())
	}
	return helper.GetTypedValueOf[resource.State[R, P]](func() (any, bool, error) {
		return s.repo.Load(family.Name())
	})
}

// Dispatch folds sig into its slot and returns once the fold and the
// middleware have run. A fold error, such as a signal built by a family with
// other types, is returned.
func (s *Store) Dispatch(ctx context.Context, sig signal.Signal) error {
	env, err := s.enqueue(ctx, sig, make(chan error, 1))
	if err != nil {
		return err
	}
	select {
	case err := <-env.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
}

// Post enqueues sig without waiting for it to be folded.
func (s *Store) Post(ctx context.Context, sig signal.Signal) error {
	_, err := s.enqueue(ctx, sig, nil)
	return err
}

func (s *Store) enqueue(ctx context.Context, sig signal.Signal, done chan error) (envelope, error) {
	if s.closed.Load() {
		return envelope{}, ErrClosed
	}
	if sig == nil {
		return envelope{}, ErrNilSignal
	}
	name, _, ok := s.registry.Lookup(sig.SignalType())
	if !ok {
		s.logger.Warn("dispatch of unknown signal", zap.String("type", string(sig.SignalType())))
		return envelope{}, fmt.Errorf("%w: %q", ErrUnknownFamily, sig.SignalType())
	}
	raw, ok := s.slots.Load(name)
	if !ok {
		return envelope{}, fmt.Errorf("%w: %q has no slot", ErrUnknownFamily, name)
	}

	env := envelope{name: name, sig: sig, slot: raw.(slot), done: done}
	select {
	case s.queue.ChannelOf(env) <- env:
		return env, nil
	case <-ctx.Done():
		return envelope{}, ctx.Err()
	case <-s.ctx.Done():
		return envelope{}, ErrClosed
	}
}

// handle runs on the worker owning env's family.
func (s *Store) handle(ctx context.Context, env envelope) {
	applied, err := env.slot.fold(s.repo, env.name, env.sig)
	logger := s.logger.With(
		zap.String("family", env.name),
		zap.String("type", string(env.sig.SignalType())),
	)
	switch {
	case err != nil:
		logger.Error("fail to fold signal", zap.Error(err))
	case !applied:
		logger.Info("discarded stale signal")
	default:
		logger.Debug("folded signal")
	}

	if err == nil {
		change := Change{
			Family:  env.name,
			Type:    env.sig.SignalType(),
			Kind:    env.sig.Kind(),
			Applied: applied,
			At:      now(),
		}
		select {
		case s.source <- change:
		default:
		}
		s.runMiddleware(ctx, logger, env.sig, applied)
	}

	if env.done != nil {
		env.done <- err
	}
}

func (s *Store) runMiddleware(ctx context.Context, logger *zap.Logger, sig signal.Signal, applied bool) {
	s.mu.RLock()
	mws := s.middleware
	s.mu.RUnlock()

	for _, mw := range mws {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic in middleware", zap.Any("panic", r))
				}
			}()
			mw(ctx, sig, applied)
		}()
	}
}

var _ dispatch.Partitionable = envelope{}

type envelope struct {
	name string
	sig  signal.Signal
	slot slot
	done chan error
}

func (e envelope) PartitionKey() string { return e.name }

// slot erases the type parameters of a registered family.
type slot interface {
	fold(repo Repo, name string, sig signal.Signal) (applied bool, err error)
}

type typedSlot[R, P any] struct {
	reducer fold.Reducer[R, P]
}

func (ts *typedSlot[R, P]) fold(repo Repo, name string, sig signal.Signal) (bool, error) {
	cur, err := helper.GetTypedValueOf[resource.State[R, P]](func() (any, bool, error) {
		return repo.Load(name)
	})
	if err != nil {
		return false, fmt.Errorf("load slot %q: %w", name, err)
	}
	next, applied, err := ts.reducer.Reduce(cur, sig)
	if err != nil || !applied {
		return applied, err
	}
	if err := repo.Store(name, next); err != nil {
		return false, fmt.Errorf("store slot %q: %w", name, err)
	}
	return true, nil
}
