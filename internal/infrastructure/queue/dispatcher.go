package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/atica/user-roster/internal/core/domain"
	"github.com/atica/user-roster/internal/core/ports"
	"github.com/atica/user-roster/internal/platform/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	insertTimeout  = 5 * time.Second
)

// Dispatcher fans user events out to a fixed set of workers that write them to
// the audit repository. Events are sharded by user ID, so the events of one
// user are stored in the order they were published.
type Dispatcher struct {
	workers []chan domain.UserEvent
	repo    ports.AuditRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.UserEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.UserEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit once Close has been
// called and their channel is drained; ctx bounds the repository writes.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish queues the event on its worker without blocking. When the worker
// is saturated or the dispatcher is closed the event is dropped and counted.
func (d *Dispatcher) Publish(_ context.Context, event domain.UserEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}

	idx := d.shardIndex(event.UserID)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(event, "worker queue full")
	}
}

// Close stops accepting events and waits for the workers to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) drop(event domain.UserEvent, reason string) {
	metrics.AuditEventsTotal.WithLabelValues(string(event.Type), "dropped").Inc()
	d.log.Warn().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Int64("user_id", event.UserID).
		Str("reason", reason).
		Msg("audit event dropped")
}

// shardIndex maps a user ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID int64) int {
	if userID < 0 {
		userID = -userID
	}
	return int(userID % int64(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.UserEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for event := range ch {
		metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

		insertCtx, cancel := context.WithTimeout(ctx, insertTimeout)
		err := d.repo.InsertEvent(insertCtx, &event)
		cancel()

		if err != nil {
			metrics.AuditEventsTotal.WithLabelValues(string(event.Type), "failed").Inc()
			d.log.Error().Err(err).
				Str("event_id", event.ID).
				Int64("user_id", event.UserID).
				Int("worker_id", id).
				Msg("audit event insert failed")
			continue
		}
		metrics.AuditEventsTotal.WithLabelValues(string(event.Type), "stored").Inc()
	}
}
