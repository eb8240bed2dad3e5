package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

var errDial = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

func fast() Options {
	return Options{Workers: 1, QueueSize: 1, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Deadline: time.Second}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(fast())
	defer d.Close()

	var calls atomic.Int32
	err := d.Do(context.Background(), Job{Action: "notify.manager", Run: func(context.Context) error {
		if calls.Add(1) < 3 {
			return errDial
		}
		return nil
	}})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
	if sent, failed := d.Stats(); sent != 1 || failed != 0 {
		t.Fatalf("stats = %d/%d", sent, failed)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	d := NewDispatcher(fast())
	defer d.Close()

	boom := errors.New("chat not found")
	var calls atomic.Int32
	err := d.Do(context.Background(), Job{Action: "notify.manager", Run: func(context.Context) error {
		calls.Add(1)
		return boom
	}})
	if !errors.Is(err, boom) || calls.Load() != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls.Load())
	}
	if _, failed := d.Stats(); failed != 1 {
		t.Fatalf("failed = %d", failed)
	}
}

func TestDoGivesUpAfterRetries(t *testing.T) {
	opts := fast()
	opts.Retries = 1
	d := NewDispatcher(opts)
	defer d.Close()

	var calls atomic.Int32
	err := d.Do(context.Background(), Job{Run: func(context.Context) error {
		calls.Add(1)
		return errDial
	}})
	if !errors.Is(err, errDial) || calls.Load() != 2 {
		t.Fatalf("err = %v, calls = %d", err, calls.Load())
	}
}

func TestEnqueue(t *testing.T) {
	d := NewDispatcher(fast())

	started := make(chan struct{})
	release := make(chan struct{})
	if err := d.Enqueue(context.Background(), Job{Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	<-started

	done := make(chan struct{})
	if err := d.Enqueue(context.Background(), Job{Run: func(context.Context) error {
		close(done)
		return nil
	}}); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}
	if err := d.Enqueue(context.Background(), Job{Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrFull) {
		t.Fatalf("err = %v, want ErrFull", err)
	}

	close(release)
	<-done
	d.Close()
	if err := d.Enqueue(context.Background(), Job{Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	d.Close()
}

func TestEnqueueOutlivesCaller(t *testing.T) {
	d := NewDispatcher(fast())
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan error, 1)
	if err := d.Enqueue(ctx, Job{Run: func(ctx context.Context) error {
		got <- ctx.Err()
		return nil
	}}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	cancel()
	d.Close()
	if err := <-got; err != nil {
		t.Fatalf("job saw %v", err)
	}
}
