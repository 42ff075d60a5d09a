package fold_test

import (
	"errors"
	"testing"

	"github.com/on-the-ground/loadable_go/fold"
	"github.com/on-the-ground/loadable_go/resource"
	"github.com/on-the-ground/loadable_go/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReducer_FoldsOwnSignals(t *testing.T) {
	r := fold.NewReducer(users)
	assert.Equal(t, "Users", r.Family().Name())

	s := resource.Initial[[]user, query]([]user{})
	s, applied, err := r.Reduce(s, users.Execute.Of(signal.Params(query{Page: 1})))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, s.IsLoading())

	s, applied, err = r.Reduce(s, users.Success.Of(signal.Succeeded([]user{ada}, query{Page: 1})))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []user{ada}, s.Results)

	s, applied, err = r.Reduce(s, users.Failed.Of(signal.Errored(query{Page: 1}, errors.New("x"))))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, s.HasError())
	assert.Equal(t, []user{ada}, s.Results)
}

func TestReducer_RejectsForeignFamily(t *testing.T) {
	r := fold.NewReducer(users)
	s := resource.Initial[[]user, query]([]user{})

	// same Go types, other discriminant
	next, applied, err := r.Reduce(s, orders.Execute.Of(signal.Params(query{})))
	assert.ErrorIs(t, err, fold.ErrForeignSignal)
	assert.False(t, applied)
	assert.Equal(t, s, next)

	_, _, err = r.Reduce(s, nil)
	assert.ErrorIs(t, err, fold.ErrForeignSignal)
}

func TestReducer_RejectsDiscriminantOfOtherKind(t *testing.T) {
	r := fold.NewReducer(users)
	s := resource.Initial[[]user, query]([]user{})

	success := users.Success.Of(signal.Succeeded([]user{ada}, query{Page: 1}))
	success.Type = users.Execute.Type()
	next, applied, err := r.Reduce(s, success)
	assert.ErrorIs(t, err, fold.ErrSignalMismatch)
	assert.False(t, applied)
	assert.Equal(t, s, next)

	exec := users.Execute.Of(signal.Params(query{Page: 1}))
	exec.Type = users.Failed.Type()
	_, applied, err = r.Reduce(s, exec)
	assert.ErrorIs(t, err, fold.ErrSignalMismatch)
	assert.False(t, applied)

	failed := users.Failed.Of(signal.Errored(query{Page: 1}, errors.New("x")))
	failed.Type = users.Success.Type()
	_, applied, err = r.Reduce(s, failed)
	assert.ErrorIs(t, err, fold.ErrSignalMismatch)
	assert.False(t, applied)
}

func TestReducer_RejectsMismatchedTypes(t *testing.T) {
	// a standalone family with the same name but other params type
	impostor, err := signal.New[[]user, int]("Users")
	require.NoError(t, err)

	r := fold.NewReducer(users)
	_, applied, err := r.Reduce(resource.Initial[[]user, query](nil), impostor.Execute.Of(signal.Params(1)))
	assert.ErrorIs(t, err, fold.ErrSignalMismatch)
	assert.False(t, applied)
}

func TestReducer_StaleGuard(t *testing.T) {
	r := fold.NewReducer(users, fold.WithStaleGuard[[]user](fold.Comparable[query]()))

	s := resource.Initial[[]user, query]([]user{})
	s, _, _ = r.Reduce(s, users.Execute.Of(signal.Params(query{Page: 1})))
	s, _, _ = r.Reduce(s, users.Execute.Of(signal.Params(query{Page: 2})))

	// late answer for page 1 is discarded
	next, applied, err := r.Reduce(s, users.Success.Of(signal.Succeeded([]user{ada}, query{Page: 1})))
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, s, next)

	next, applied, err = r.Reduce(s, users.Failed.Of(signal.Errored(query{Page: 1}, errors.New("late"))))
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, s, next)

	s, applied, err = r.Reduce(s, users.Success.Of(signal.Succeeded([]user{alan}, query{Page: 2})))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []user{alan}, s.Results)

	// nothing is loading any more
	again, applied, err := r.Reduce(s, users.Success.Of(signal.Succeeded([]user{alan}, query{Page: 2})))
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, s, again)
}

func TestReducer_NoGuardAppliesLateSignals(t *testing.T) {
	r := fold.NewReducer(users)

	s := resource.Initial[[]user, query]([]user{})
	s, _, _ = r.Reduce(s, users.Execute.Of(signal.Params(query{Page: 1})))
	s, _, _ = r.Reduce(s, users.Execute.Of(signal.Params(query{Page: 2})))
	s, applied, err := r.Reduce(s, users.Success.Of(signal.Succeeded([]user{ada}, query{Page: 1})))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []user{ada}, s.Results)
}
