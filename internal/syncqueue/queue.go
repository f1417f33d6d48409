package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

// ErrDrainInProgress is returned when a drain is requested while another one
// is still running; drains are single-flight.
var ErrDrainInProgress = errors.New("drain already in progress")

// Replayer applies one queued mutation to the remote store. Implementations
// must deduplicate on Record.ID so replaying after a partial failure is
// safe.
type Replayer interface {
	Replay(ctx context.Context, rec Record) error
}

// Storage is the persistent record set the queue works over. *Store
// satisfies it.
type Storage interface {
	Append(ctx context.Context, rec Record) error
	Pending(ctx context.Context) ([]Record, error)
	MarkSynced(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, message string) error
}

// DrainResult summarizes one full replay pass.
type DrainResult struct {
	Succeeded int `json:"succeeded"`
	Remaining int `json:"remaining"`
}

type Options struct {
	// Debounce delays the drain after an offline -> online transition so a
	// flapping connection does not trigger a sync storm.
	Debounce time.Duration
	// ReplayTimeout bounds each remote replay call; expiry counts as a
	// retryable failure instead of stalling the pass.
	ReplayTimeout time.Duration
	// BackoffMin/BackoffMax bound the jittered delay between automatic
	// retry passes. Retries continue indefinitely; there is no dead-letter
	// state.
	BackoffMin time.Duration
	BackoffMax time.Duration
	// Notify, when set, receives the result of every drain that did work.
	Notify func(DrainResult)
}

func (o *Options) fillDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if o.ReplayTimeout <= 0 {
		o.ReplayTimeout = 10 * time.Second
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = 2 * time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 5 * time.Minute
	}
}

// Queue replays pending records against the remote store whenever the
// terminal is online. Records are replayed in enqueue order; a failed record
// stays pending and the rest of the batch proceeds.
type Queue struct {
	store    Storage
	replayer Replayer
	logger   *log.Logger
	opts     Options

	drainMu sync.Mutex

	mu      sync.Mutex
	online  bool
	timer   *time.Timer
	backoff time.Duration
}

func NewQueue(store Storage, replayer Replayer, logger *log.Logger, opts Options) *Queue {
	opts.fillDefaults()
	return &Queue{
		store:    store,
		replayer: replayer,
		logger:   logger,
		opts:     opts,
		backoff:  opts.BackoffMin,
	}
}

// Enqueue persists the mutation locally; this always succeeds unless the
// local store itself fails. When online it also kicks an immediate
// asynchronous drain so the record does not wait for the next connectivity
// transition.
func (q *Queue) Enqueue(ctx context.Context, entityType string, op Operation, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	now := time.Now().UTC()
	rec := Record{
		ID:         newRecordID(entityType, op, now),
		EntityType: entityType,
		Op:         op,
		Payload:    body,
		CreatedAt:  now,
	}
	if err := q.store.Append(ctx, rec); err != nil {
		return "", fmt.Errorf("append record: %w", err)
	}
	if q.Online() {
		go func() {
			if _, err := q.Drain(context.Background()); err != nil && !errors.Is(err, ErrDrainInProgress) {
				q.logger.Printf("post-enqueue drain: %v", err)
			}
		}()
	}
	return rec.ID, nil
}

// Drain replays every pending record once, oldest first. Failures are
// swallowed per record so the rest of the batch proceeds; the failed records
// stay pending for the next pass.
func (q *Queue) Drain(ctx context.Context) (DrainResult, error) {
	if !q.drainMu.TryLock() {
		return DrainResult{}, ErrDrainInProgress
	}
	defer q.drainMu.Unlock()

	recs, err := q.store.Pending(ctx)
	if err != nil {
		return DrainResult{}, fmt.Errorf("load pending records: %w", err)
	}

	var res DrainResult
	for _, rec := range recs {
		if err := q.replayOne(ctx, rec); err != nil {
			q.logger.Printf("replay %s: %v", rec.ID, err)
			if markErr := q.store.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
				q.logger.Printf("mark %s failed: %v", rec.ID, markErr)
			}
			res.Remaining++
			continue
		}
		if err := q.store.MarkSynced(ctx, rec.ID); err != nil {
			q.logger.Printf("mark %s synced: %v", rec.ID, err)
			res.Remaining++
			continue
		}
		res.Succeeded++
	}

	if res.Succeeded > 0 {
		q.logger.Printf("synced %d change(s), %d remaining", res.Succeeded, res.Remaining)
	}
	if q.opts.Notify != nil && (res.Succeeded > 0 || res.Remaining > 0) {
		q.opts.Notify(res)
	}
	return res, nil
}

func (q *Queue) replayOne(ctx context.Context, rec Record) error {
	rctx, cancel := context.WithTimeout(ctx, q.opts.ReplayTimeout)
	defer cancel()
	return q.replayer.Replay(rctx, rec)
}

// SetOnline feeds connectivity transitions into the queue. Going online
// schedules a debounced drain; going offline cancels any scheduled one and
// future mutations simply queue up.
func (q *Queue) SetOnline(online bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if online == q.online {
		return
	}
	q.online = online
	if online {
		q.scheduleLocked(q.opts.Debounce)
		return
	}
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

func (q *Queue) scheduleLocked(delay time.Duration) {
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(delay, q.autoDrain)
}

// autoDrain runs a pass and, when records remain, reschedules itself with
// jittered exponential backoff. Retries never stop while the queue remains
// online.
func (q *Queue) autoDrain() {
	if !q.Online() {
		return
	}
	res, err := q.Drain(context.Background())
	if errors.Is(err, ErrDrainInProgress) {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.online {
		return
	}
	if err != nil || res.Remaining > 0 {
		q.backoff *= 2
		if q.backoff > q.opts.BackoffMax {
			q.backoff = q.opts.BackoffMax
		}
		q.scheduleLocked(withJitter(q.backoff))
		return
	}
	q.backoff = q.opts.BackoffMin
}

// withJitter spreads retries over [d/2, d) so terminals that lost
// connectivity together do not drain in lockstep.
func withJitter(d time.Duration) time.Duration {
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// Watch polls the probe and feeds transitions into SetOnline until ctx is
// done. Run it in its own goroutine.
func (q *Queue) Watch(ctx context.Context, probe Probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.SetOnline(probe.Online(ctx))
		}
	}
}

// Probe reports whether the remote store is currently reachable.
type Probe interface {
	Online(ctx context.Context) bool
}
