// Package sender runs outbound Telegram calls with retries, either off the
// update goroutine through a queue or inline when the caller needs the result.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/core/telegram/netutil"
)

const component = "tg.sender"

var (
	// ErrClosed is returned by Enqueue after Close.
	ErrClosed = errors.New("sender: closed")
	// ErrFull is returned by Enqueue when the queue has no room left.
	ErrFull = errors.New("sender: queue full")
)

// Job is one outbound call. Run may be called several times.
type Job struct {
	Action   string
	Endpoint string
	Run      func(ctx context.Context) error
}

// Options tune a Dispatcher. Zero values select the defaults.
type Options struct {
	QueueSize int
	Workers   int
	// Retries is the number of extra attempts after a transient failure.
	// A negative value disables retries.
	Retries    int
	Backoff    time.Duration
	MaxBackoff time.Duration
	// Deadline bounds all attempts of a single job.
	Deadline time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	switch {
	case o.Retries < 0:
		o.Retries = 0
	case o.Retries == 0:
		o.Retries = 2
	}
	if o.Backoff <= 0 {
		o.Backoff = 500 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Second
	}
	if o.Deadline <= 0 {
		o.Deadline = 15 * time.Second
	}
	return o
}

type queued struct {
	ctx context.Context
	job Job
}

// Dispatcher delivers jobs with retries on transient failures.
type Dispatcher struct {
	opts  Options
	queue chan queued
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewDispatcher starts the workers of a dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:  opts,
		queue: make(chan queued, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go d.worker()
	}
	return d
}

// Enqueue schedules j. The job keeps the values of ctx but not its
// cancellation, so it outlives the update that queued it.
func (d *Dispatcher) Enqueue(ctx context.Context, j Job) error {
	if j.Run == nil {
		return errors.New("sender: job without run func")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- queued{ctx: context.WithoutCancel(ctx), job: j}:
		return nil
	default:
		return ErrFull
	}
}

// Do delivers j on the calling goroutine and returns the last error.
func (d *Dispatcher) Do(ctx context.Context, j Job) error {
	if j.Run == nil {
		return errors.New("sender: job without run func")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return d.deliver(ctx, j)
}

// Stats returns the number of delivered and failed jobs.
func (d *Dispatcher) Stats() (sent, failed uint64) {
	return d.sent.Load(), d.failed.Load()
}

// Close stops accepting jobs and waits for the queued ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()

	sent, failed := d.Stats()
	logger.Info(context.Background(), component, "sender.closed",
		slog.Uint64("sent", sent),
		slog.Uint64("failed", failed),
	)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for q := range d.queue {
		_ = d.deliver(q.ctx, q.job)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j Job) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Deadline)
	defer cancel()

	start := time.Now()
	attempts := d.opts.Retries + 1
	attempt := 1
	var err error
	for ; ; attempt++ {
		if err = j.Run(ctx); err == nil {
			d.sent.Add(1)
			logger.Debug(ctx, component, "send.ok", jobAttrs(j, attempt, start)...)
			return nil
		}
		if attempt == attempts || !netutil.Transient(err) {
			break
		}
		wait := netutil.Backoff(err, attempt, d.opts.Backoff, d.opts.MaxBackoff)
		logger.Debug(ctx, component, "send.retry", append(jobAttrs(j, attempt, start),
			slog.String("status", "retry"),
			slog.String("err_code", netutil.Kind(err)),
			slog.Duration("backoff", wait),
		)...)
		if serr := sleep(ctx, wait); serr != nil {
			err = serr
			break
		}
	}

	d.failed.Add(1)
	logger.Error(ctx, component, "send.fail", append(jobAttrs(j, attempt, start),
		slog.String("status", "fail"),
		slog.String("err", netutil.Redact(err.Error())),
		slog.String("err_code", netutil.Kind(err)),
		slog.Bool("retryable", netutil.Transient(err)),
	)...)
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func jobAttrs(j Job, attempt int, start time.Time) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", j.Action),
		slog.Int("attempts", attempt),
		slog.Duration("duration", logger.Took(start)),
	}
	if j.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.Endpoint))
	}
	return attrs
}
