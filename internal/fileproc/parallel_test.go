package fileproc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCollectsAllResults(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results, errs := Map(context.Background(), items, 8,
		func(i int) string { return strconv.Itoa(i) },
		func(i int) (int, error) { return i * 2, nil })

	assert.Empty(t, errs)
	require.Len(t, results, 100)
	sort.Ints(results)
	assert.Equal(t, 0, results[0])
	assert.Equal(t, 198, results[99])
}

func TestMapIsolatesErrors(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	boom := errors.New("boom")

	results, errs := Map(context.Background(), items, 2,
		func(i int) string { return fmt.Sprintf("item-%d", i) },
		func(i int) (int, error) {
			if i%2 == 0 {
				return 0, boom
			}
			return i, nil
		})

	assert.Len(t, results, 3)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.ErrorIs(t, e.Err, boom)
		assert.Contains(t, e.Error(), "item-")
	}
}

func TestStreamSingleConsumer(t *testing.T) {
	items := make([]int, 500)
	for i := range items {
		items[i] = i
	}

	// The consumer callback must never run concurrently with itself;
	// an unguarded counter would race under -race if it did.
	count := 0
	Stream(context.Background(), items, 16,
		func(i int) string { return "" },
		func(i int) (int, error) { return i, nil },
		func(int) { count++ },
		nil)

	assert.Equal(t, 500, count)
}

func TestStreamCancelledContextSchedulesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := 0
	Stream(ctx, []int{1, 2, 3}, 2,
		func(i int) string { return "" },
		func(i int) (int, error) { return i, nil },
		func(int) { ran++ },
		nil)

	assert.Zero(t, ran)
}

func TestMapEmptyInput(t *testing.T) {
	results, errs := Map(context.Background(), nil, 4,
		func(i int) string { return "" },
		func(i int) (int, error) { return i, nil })
	assert.Empty(t, results)
	assert.Empty(t, errs)
}

func TestMapDefaultWorkerCount(t *testing.T) {
	// workers <= 0 falls back to the CPU count; the call must still
	// complete normally.
	results, _ := Map(context.Background(), []int{1, 2, 3}, 0,
		func(i int) string { return "" },
		func(i int) (int, error) { return i, nil })
	assert.Len(t, results, 3)
	assert.Positive(t, DefaultWorkers())
}
