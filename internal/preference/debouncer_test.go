package preference

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	assert.Equal(t, int32(0), calls.Load())

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Flush(), "fired call is not pending")

	d.Stop()
}

func TestDebouncer_RearmsAfterFire(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 2*time.Millisecond)

	d.Trigger()
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 2*time.Millisecond)

	d.Stop()
}

func TestDebouncer_Flush(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	d := NewDebouncer(time.Hour, func() { calls.Add(1) })

	assert.False(t, d.Flush(), "nothing pending")

	d.Trigger()
	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Flush())

	d.Stop()
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Flush())
}

func TestDebouncer_FlushWaitsForInflightCall(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	d := NewDebouncer(time.Millisecond, func() {
		calls.Add(1)
		close(started)
		<-release
	})

	d.Trigger()
	<-started

	done := make(chan bool)
	go func() { done <- d.Flush() }()

	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.True(t, <-done, "in-flight call counts as flushed")
	assert.Equal(t, int32(1), calls.Load(), "not run a second time")

	d.Stop()
}
