package lock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/accessors/cache/lock"
)

func TestKeyedSharesInFlightCall(t *testing.T) {
	k := lock.NewKeyed()
	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = k.WithLock(context.Background(), "fp-PS", func(context.Context) error {
			runs.Add(1)
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	for i := 1; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = k.WithLock(context.Background(), "fp-PS", func(context.Context) error {
				runs.Add(1)
				return nil
			})
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	// Late callers either joined the in-flight call or ran after it.
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
	assert.LessOrEqual(t, runs.Load(), int32(len(errs)))
}

func TestKeyedPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := lock.NewKeyed().WithLock(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestKeyedDistinctKeysDoNotContend(t *testing.T) {
	k := lock.NewKeyed()
	inA := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = k.WithLock(context.Background(), "a", func(context.Context) error {
			close(inA)
			<-done
			return nil
		})
	}()
	<-inA
	ran := false
	require.NoError(t, k.WithLock(context.Background(), "b", func(context.Context) error {
		ran = true
		return nil
	}))
	close(done)
	assert.True(t, ran)
}

func TestKeyedCanceledWaiter(t *testing.T) {
	k := lock.NewKeyed()
	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = k.WithLock(context.Background(), "k", func(context.Context) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started
	defer close(hold)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := k.WithLock(ctx, "k", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
