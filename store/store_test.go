package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/loadable_go/config"
	"github.com/on-the-ground/loadable_go/fold"
	"github.com/on-the-ground/loadable_go/log"
	"github.com/on-the-ground/loadable_go/resource"
	"github.com/on-the-ground/loadable_go/shared/opt"
	"github.com/on-the-ground/loadable_go/signal"
	"github.com/on-the-ground/loadable_go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   int
	Name string
}

type query struct {
	Page int
}

func newTestStore(t *testing.T, repo store.Repo) *store.Store {
	t.Helper()
	s := store.New(
		context.Background(),
		config.NewStoreConfig(4, 4, 64),
		store.WithLogger(log.NewTest()),
		store.WithRepo(repo),
	)
	t.Cleanup(s.Close)
	return s
}

func repos(t *testing.T) map[string]store.Repo {
	memdb, err := store.NewMemDBRepo()
	require.NoError(t, err)
	return map[string]store.Repo{
		"inmem": store.NewInMemoryRepo(),
		"memdb": memdb,
	}
}

func TestStore_ExecuteSuccessRoundTrip(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore(t, repo)

			users, err := store.Define(s, "Users", resource.Initial[[]user, query]([]user{}))
			require.NoError(t, err)

			state, err := store.Select(s, users)
			require.NoError(t, err)
			assert.Equal(t, resource.Initial[[]user, query]([]user{}), state)

			require.NoError(t, s.Dispatch(ctx, users.Execute.Of(signal.Params(query{Page: 1}))))
			state, err = store.Select(s, users)
			require.NoError(t, err)
			assert.True(t, state.IsLoading())
			assert.Equal(t, opt.Some(query{Page: 1}), state.LoadingParams)

			data := []user{{ID: 1, Name: "ada"}}
			require.NoError(t, s.Dispatch(ctx, users.Success.Of(signal.Succeeded(data, query{Page: 1}))))
			state, err = store.Select(s, users)
			require.NoError(t, err)
			assert.False(t, state.IsLoading())
			assert.True(t, state.IsLoaded())
			assert.Equal(t, data, state.Results)
			assert.Equal(t, opt.Some(query{Page: 1}), state.LastParams)
		})
	}
}

func TestStore_FailedKeepsLastGoodValue(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewInMemoryRepo())
	count, err := store.Define(s, "Count", resource.Initial[int, signal.Void](0))
	require.NoError(t, err)

	require.NoError(t, s.Dispatch(ctx, count.Execute.Of(signal.NoParams)))
	require.NoError(t, s.Dispatch(ctx, count.Success.Of(signal.Succeeded(42, signal.Void{}))))
	require.NoError(t, s.Dispatch(ctx, count.Execute.Of(signal.NoParams)))
	require.NoError(t, s.Dispatch(ctx, count.Failed.Of(signal.Errored(signal.Void{}, errors.New("down")))))

	state, err := store.Select(s, count)
	require.NoError(t, err)
	assert.Equal(t, 42, state.Results)
	assert.True(t, state.IsLoaded())
	assert.False(t, state.IsLoading())
	assert.Equal(t, opt.Some("down"), state.LastErrorMsg)
}

func TestStore_DefineRejectsDuplicateName(t *testing.T) {
	s := newTestStore(t, store.NewInMemoryRepo())
	_, err := store.Define(s, "Users", resource.Initial[[]user, query](nil))
	require.NoError(t, err)

	_, err = store.Define(s, "Users", resource.Initial[int, int](0))
	assert.ErrorIs(t, err, signal.ErrDuplicateName)
	assert.ErrorIs(t, err, signal.ErrConfiguration)
}

func TestStore_RegisterRejectsForeignFamily(t *testing.T) {
	s := newTestStore(t, store.NewInMemoryRepo())

	elsewhere := signal.MustDefine[int, int](signal.NewRegistry(), "Elsewhere")
	err := store.Register(s, elsewhere, resource.Initial[int, int](0))
	assert.ErrorIs(t, err, store.ErrForeignFamily)

	standalone, err := signal.New[int, int]("Standalone")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Register(s, standalone, resource.Initial[int, int](0)), store.ErrForeignFamily)

	own := signal.MustDefine[int, int](s.Registry(), "Own")
	require.NoError(t, store.Register(s, own, resource.Initial[int, int](0)))
	assert.ErrorIs(t, store.Register(s, own, resource.Initial[int, int](0)), store.ErrSlotExists)
}

func TestStore_DispatchUnknownFamily(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewInMemoryRepo())

	unknown := signal.MustDefine[int, int](signal.NewRegistry(), "Unknown")
	assert.ErrorIs(t, s.Dispatch(ctx, unknown.Execute.Of(signal.Params(1))), store.ErrUnknownFamily)

	// defined but without a slot
	bare := signal.MustDefine[int, int](s.Registry(), "Bare")
	assert.ErrorIs(t, s.Dispatch(ctx, bare.Execute.Of(signal.Params(1))), store.ErrUnknownFamily)

	assert.ErrorIs(t, s.Dispatch(ctx, nil), store.ErrNilSignal)
}

func TestStore_DispatchMismatchedTypes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewInMemoryRepo())
	_, err := store.Define(s, "Users", resource.Initial[[]user, query](nil))
	require.NoError(t, err)

	impostor, err := signal.New[[]user, int]("Users")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Dispatch(ctx, impostor.Execute.Of(signal.Params(1))), fold.ErrSignalMismatch)
}

func TestStore_SelectErrors(t *testing.T) {
	s := newTestStore(t, store.NewInMemoryRepo())

	_, err := store.Select(s, signal.MustDefine[int, int](s.Registry(), "NoSlot"))
	assert.ErrorIs(t, err, store.ErrUnknownFamily)

	_, err = store.Define(s, "Typed", resource.Initial[int, int](0))
	require.NoError(t, err)
	other, err := signal.New[string, int]("Typed")
	require.NoError(t, err)
	_, err = store.Select(s, other)
	assert.ErrorIs(t, err, store.ErrSlotTypeMismatch)
}

func TestStore_StaleGuard(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewInMemoryRepo())
	users, err := store.Define(s, "Users",
		resource.Initial[[]user, query]([]user{}),
		fold.WithStaleGuard[[]user](fold.Comparable[query]()),
	)
	require.NoError(t, err)

	require.NoError(t, s.Dispatch(ctx, users.Execute.Of(signal.Params(query{Page: 1}))))
	require.NoError(t, s.Dispatch(ctx, users.Execute.Of(signal.Params(query{Page: 2}))))
	require.NoError(t, s.Dispatch(ctx, users.Success.Of(signal.Succeeded([]user{{ID: 1}}, query{Page: 1}))))

	state, err := store.Select(s, users)
	require.NoError(t, err)
	assert.True(t, state.IsLoading())
	assert.Empty(t, state.Results)

	require.NoError(t, s.Dispatch(ctx, users.Success.Of(signal.Succeeded([]user{{ID: 2}}, query{Page: 2}))))
	state, err = store.Select(s, users)
	require.NoError(t, err)
	assert.Equal(t, []user{{ID: 2}}, state.Results)
}

func TestStore_SourcePublishesChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewInMemoryRepo())
	tick, err := store.Define(s, "Tick", resource.Initial[int, signal.Void](0))
	require.NoError(t, err)

	require.NoError(t, s.Dispatch(ctx, tick.Execute.Of(signal.NoParams)))
	require.NoError(t, s.Dispatch(ctx, tick.Success.Of(signal.Succeeded(1, signal.Void{}))))

	var got []store.Change
	for len(got) < 2 {
		select {
		case c := <-s.Source():
			got = append(got, c)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for changes")
		}
	}
	assert.Equal(t, "Tick", got[0].Family)
	assert.Equal(t, tick.Execute.Type(), got[0].Type)
	assert.Equal(t, signal.KindExecute, got[0].Kind)
	assert.True(t, got[0].Applied)
	assert.Equal(t, tick.Success.Type(), got[1].Type)
	assert.False(t, got[1].At.Start().IsZero())
}

func TestStore_MiddlewareSeesFoldedSignals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewInMemoryRepo())
	tick, err := store.Define(s, "Tick", resource.Initial[int, signal.Void](0))
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []signal.Type
	)
	s.Use(func(ctx context.Context, sig signal.Signal, applied bool) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, sig.SignalType())
	})
	s.Use(func(context.Context, signal.Signal, bool) {
		panic("middleware bug")
	})

	require.NoError(t, s.Dispatch(ctx, tick.Execute.Of(signal.NoParams)))
	require.NoError(t, s.Dispatch(ctx, tick.Failed.Of(signal.Errored(signal.Void{}, errors.New("x")))))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []signal.Type{tick.Execute.Type(), tick.Failed.Type()}, seen)
}

func TestStore_PerFamilyOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.NewInMemoryRepo())

	counters := make([]signal.Family[int, int], 5)
	for i := range counters {
		f, err := store.Define(s, fmt.Sprintf("Counter %d", i), resource.Initial[int, int](0))
		require.NoError(t, err)
		counters[i] = f
	}

	var wg sync.WaitGroup
	for _, f := range counters {
		wg.Add(1)
		go func(f signal.Family[int, int]) {
			defer wg.Done()
			for n := 1; n <= 50; n++ {
				assert.NoError(t, s.Post(ctx, f.Execute.Of(signal.Params(n))))
				assert.NoError(t, s.Post(ctx, f.Success.Of(signal.Succeeded(n, n))))
			}
		}(f)
	}
	wg.Wait()

	for _, f := range counters {
		require.Eventually(t, func() bool {
			state, err := store.Select(s, f)
			return err == nil && state.Results == 50
		}, time.Second, 5*time.Millisecond)

		state, err := store.Select(s, f)
		require.NoError(t, err)
		assert.Equal(t, opt.Some(50), state.LastParams)
		assert.False(t, state.IsLoading())
	}
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	s := store.New(ctx, config.StoreConfig{})
	tick, err := store.Define(s, "Tick", resource.Initial[int, signal.Void](0))
	require.NoError(t, err)

	s.Close()
	s.Close()

	assert.ErrorIs(t, s.Dispatch(ctx, tick.Execute.Of(signal.NoParams)), store.ErrClosed)
	assert.ErrorIs(t, s.Post(ctx, tick.Execute.Of(signal.NoParams)), store.ErrClosed)

	_, open := <-s.Source()
	assert.False(t, open)
}

func TestStore_DispatchHonorsContext(t *testing.T) {
	s := newTestStore(t, store.NewInMemoryRepo())
	tick, err := store.Define(s, "Tick", resource.Initial[int, signal.Void](0))
	require.NoError(t, err)

	blocked := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	s.Use(func(context.Context, signal.Signal, bool) {
		once.Do(func() { close(blocked) })
		<-release
	})
	defer close(release)

	go func() { _ = s.Dispatch(context.Background(), tick.Execute.Of(signal.NoParams)) }()
	<-blocked

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = s.Dispatch(ctx, tick.Execute.Of(signal.NoParams))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
