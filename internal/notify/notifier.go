// Package notify forwards trigger reports to a webhook as CloudEvents.
//
// Reports are queued in a bounded channel and delivered by a worker pool
// with exponential backoff. When the buffer is full the report is dropped;
// the trigger path never waits on delivery.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"spidertrigger/internal/trigger"
	"spidertrigger/pkg/backoff"
	"spidertrigger/pkg/cloudevent"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBufferFull is returned when a report is dropped because the buffer is full.
var ErrBufferFull = errors.New("notifier buffer full, report dropped")

// ErrClosed is returned for reports published after Close.
var ErrClosed = errors.New("notifier is closed")

// MetricsRecorder is an optional interface for recording notifier metrics.
type MetricsRecorder interface {
	RecordNotifierDelivered(ctx context.Context, durationSeconds float64)
	RecordNotifierFailed(ctx context.Context)
	RecordNotifierDropped(ctx context.Context)
}

// Stats holds notifier statistics.
type Stats struct {
	QueueDepth   int   // current queue size
	Queued       int64 // total reports queued
	Delivered    int64 // successful deliveries
	Failed       int64 // failed after retries
	Dropped      int64 // dropped due to full buffer
	RetriesTotal int64 // total retry attempts
}

// Notifier is an asynchronous webhook reporter.
type Notifier struct {
	queue   chan *cloudevent.CloudEvent
	sender  *cloudevent.Sender
	config  Config
	retry   backoff.Config
	logger  *slog.Logger
	metrics MetricsRecorder

	queued       atomic.Int64
	delivered    atomic.Int64
	failed       atomic.Int64
	dropped      atomic.Int64
	retriesTotal atomic.Int64

	mu       sync.RWMutex // guards closed against concurrent enqueue
	closed   bool
	wg       sync.WaitGroup
	shutdown chan struct{}
}

// New starts a notifier. metrics may be nil.
func New(cfg Config, metrics MetricsRecorder) *Notifier {
	cfg = cfg.withDefaults()

	n := &Notifier{
		queue:  make(chan *cloudevent.CloudEvent, cfg.BufferSize),
		sender: cloudevent.NewSender(cfg.HTTPTimeout, "spider-trigger"),
		config: cfg,
		retry: backoff.Config{
			Initial:  defaultInitialBackoff,
			Max:      defaultMaxBackoff,
			Attempts: defaultMaxAttempts,
		},
		logger:   slog.With("component", "notifier", "destination", extractHost(cfg.URL)),
		metrics:  metrics,
		shutdown: make(chan struct{}),
	}

	n.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go n.worker()
	}

	n.logger.Info("Notifier started", "workers", cfg.Workers, "buffer", cfg.BufferSize)
	return n
}

// Publish queues a report for delivery without blocking.
// A full buffer is logged by Enqueue; a closed notifier is logged here.
func (n *Notifier) Publish(r *trigger.Report) {
	err := n.Enqueue(BuildEvent(n.config.Source, r))
	if errors.Is(err, ErrClosed) {
		n.dropped.Add(1)
		if n.metrics != nil {
			n.metrics.RecordNotifierDropped(context.Background())
		}
		n.logger.Warn("Report dropped, notifier closed",
			"spiderId", r.SpiderID,
			"batch", r.Batch,
			"failure", r.Failure,
		)
	}
}

// Enqueue queues an event for delivery. Non-blocking.
func (n *Notifier) Enqueue(event *cloudevent.CloudEvent) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrClosed
	}

	select {
	case n.queue <- event:
		n.queued.Add(1)
		return nil
	default:
		n.dropped.Add(1)
		if n.metrics != nil {
			n.metrics.RecordNotifierDropped(context.Background())
		}
		n.logger.Warn("Report dropped, buffer full", "type", event.Type, "subject", event.Subject)
		return ErrBufferFull
	}
}

// Stats returns current notifier statistics.
func (n *Notifier) Stats() Stats {
	return Stats{
		QueueDepth:   len(n.queue),
		Queued:       n.queued.Load(),
		Delivered:    n.delivered.Load(),
		Failed:       n.failed.Load(),
		Dropped:      n.dropped.Load(),
		RetriesTotal: n.retriesTotal.Load(),
	}
}

// Close stops accepting reports and delivers what is queued.
// The context deadline controls how long to wait for drain.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	n.logger.Info("Notifier shutting down", "queued", len(n.queue))
	close(n.shutdown)

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.logger.Info("Notifier shutdown complete",
			"delivered", n.delivered.Load(),
			"failed", n.failed.Load(),
			"dropped", n.dropped.Load(),
		)
		return nil
	case <-ctx.Done():
		n.logger.Warn("Notifier shutdown timed out", "remaining", len(n.queue))
		return ctx.Err()
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()

	for {
		select {
		case <-n.shutdown:
			n.drainQueue()
			return
		case event := <-n.queue:
			n.deliver(event)
		}
	}
}

func (n *Notifier) drainQueue() {
	for {
		select {
		case event := <-n.queue:
			n.deliver(event)
		default:
			return
		}
	}
}

func (n *Notifier) deliver(event *cloudevent.CloudEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	attempts := 0
	err := backoff.Retry(ctx, &n.retry, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			n.retriesTotal.Add(1)
		}
		err := n.sender.Send(ctx, n.config.URL, event, n.config.SigningKey)
		if cloudevent.IsClientError(err) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		n.failed.Add(1)
		if n.metrics != nil {
			n.metrics.RecordNotifierFailed(ctx)
		}
		n.logger.Warn("Delivery failed", "type", event.Type, "subject", event.Subject, "attempts", attempts, "error", err)
		return
	}

	n.delivered.Add(1)
	if n.metrics != nil {
		n.metrics.RecordNotifierDelivered(ctx, time.Since(start).Seconds())
	}
}

// extractHost keeps credentials and paths out of log lines.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}

var _ trigger.Reporter = (*Notifier)(nil)
