package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Ready(t *testing.T) {
	r := Ready(42)

	assert.True(t, r.IsReady())

	value, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, value)

	resolved, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, resolved)
}

func TestResult_Pending_Lazy(t *testing.T) {
	calls := 0
	r := Pending(func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	assert.False(t, r.IsReady())
	_, ok := r.Value()
	assert.False(t, ok)
	// nothing ran before Resolve
	assert.Equal(t, 0, calls)

	resolved, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, resolved)
	assert.Equal(t, 1, calls)
}

func TestResult_Pending_ResolvesEachTime(t *testing.T) {
	calls := 0
	r := Pending(func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})

	first, err := r.Resolve(context.Background())
	require.NoError(t, err)
	second, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestResult_Pending_Error(t *testing.T) {
	fetchErr := errors.New("provider down")
	r := Pending(func(ctx context.Context) (int, error) {
		return 0, fetchErr
	})

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, fetchErr)
}

func TestResult_ZeroValue(t *testing.T) {
	var r Result[int]

	assert.True(t, r.IsReady())
	value, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, 0, value)
}
