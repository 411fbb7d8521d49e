package vvrecon

import (
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachJob(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 16} {
		counts := make([]atomic.Int32, 37)
		forEachJob(len(counts), workers, func(i int) {
			counts[i].Add(1)
		})
		for i := range counts {
			require.Equal(t, int32(1), counts[i].Load(), "workers %d job %d", workers, i)
		}
	}
}

func TestRunJobsStopsOnError(t *testing.T) {
	errBoom := errors.New("boom")
	for _, workers := range []int{1, 4} {
		var calls atomic.Int32
		err := runJobs(1000, workers, func(i int) error {
			calls.Add(1)
			if i == 5 {
				return errBoom
			}
			return nil
		})
		assert.ErrorIs(t, err, errBoom, "workers %d", workers)
		if workers == 1 {
			assert.Equal(t, int32(6), calls.Load())
		}
	}
	assert.NoError(t, runJobs(10, 4, func(int) error { return nil }))
}
