package run

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"backend-fitlog/internal/position"
)

var (
	ErrFinalizeInFlight = errors.New("finalization already in progress")
	ErrTrackerStopped   = errors.New("tracker stopped")
)

// RunStore is the backing-store surface the tracker needs.
type RunStore interface {
	CreateRun(ctx context.Context, userID string) (Run, error)
	InsertWaypoints(ctx context.Context, batch []Waypoint) error
	CompleteRun(ctx context.Context, runID string, finishedAt time.Time, distanceM float64, durationS int, avgPace *float64, route LineString) (Run, error)
}

// Broadcaster fans live events out to stream watchers.
type Broadcaster interface {
	Broadcast(runID string, payload []byte)
}

// Options tunes one tracker. Zero values fall back to the defaults the
// tracking client used.
type Options struct {
	NoiseFloorM     float64
	PaceWindowS     int
	TickInterval    time.Duration
	FlushInterval   time.Duration
	SampleMaxAge    time.Duration
	AcquireTimeout  time.Duration
	AbortOnGPSError bool
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 30 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Tracker owns the full lifetime of one tracked run: the session, the
// ingestion pipeline, the persistence buffer, the position subscription and
// the tick/flush timers. Everything it starts is cancelled by Stop or
// Discard.
type Tracker struct {
	opts     Options
	store    RunStore
	hub      Broadcaster
	session  *Session
	buffer   *Buffer
	pipeline *Pipeline
	source   *position.PushSource

	run Run

	mu         sync.Mutex
	finalizing bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewTracker(store RunStore, hub Broadcaster, opts Options) *Tracker {
	opts = opts.withDefaults()
	session := NewSession(opts.PaceWindowS, opts.Now)
	buffer := NewBuffer(store)
	return &Tracker{
		opts:     opts,
		store:    store,
		hub:      hub,
		session:  session,
		buffer:   buffer,
		pipeline: NewPipeline(session, buffer, opts.NoiseFloorM),
		done:     make(chan struct{}),
	}
}

// Start creates the run record, opens the position subscription and starts
// the tick and flush loops. On store failure nothing is started.
func (t *Tracker) Start(ctx context.Context, userID string) (Run, error) {
	r, err := t.store.CreateRun(ctx, userID)
	if err != nil {
		return Run{}, err
	}
	if err := t.session.Start(r.ID); err != nil {
		return Run{}, err
	}
	t.run = r

	t.source = position.NewPush(position.PushConfig{
		MaxSampleAge:   t.opts.SampleMaxAge,
		AcquireTimeout: t.opts.AcquireTimeout,
	})

	t.wg.Add(3)
	go t.consumeLoop()
	go t.tickLoop()
	go t.flushLoop()

	return r, nil
}

// Ingest feeds one raw sample into the position source. Filtering and
// acceptance happen downstream on the consume loop.
func (t *Tracker) Ingest(sample position.Sample) error {
	return t.source.Offer(sample)
}

func (t *Tracker) Pause() error {
	if err := t.session.Pause(); err != nil {
		return err
	}
	t.broadcastStatus(StatusPaused)
	return nil
}

func (t *Tracker) Resume() error {
	if err := t.session.Resume(); err != nil {
		return err
	}
	t.broadcastStatus(StatusActive)
	return nil
}

// Stats returns the live session snapshot.
func (t *Tracker) Stats() Snapshot {
	return t.session.Stats()
}

// Run returns the run record this tracker was started for.
func (t *Tracker) Run() Run {
	return t.run
}

// Stop finalizes the run: cancels the subscription and timers, flushes the
// remaining waypoints, commits the completed record and resets the session.
// On any failure the session is left intact so Stop can be retried without
// losing in-memory state. Only one attempt runs at a time.
func (t *Tracker) Stop(ctx context.Context) (Run, error) {
	t.mu.Lock()
	if t.finalizing {
		t.mu.Unlock()
		return Run{}, ErrFinalizeInFlight
	}
	t.finalizing = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.finalizing = false
		t.mu.Unlock()
	}()

	t.stopLoops()

	if err := t.session.Stop(); err != nil && t.session.State() != StateStopped {
		return Run{}, err
	}

	if err := t.buffer.Flush(ctx); err != nil {
		return Run{}, err
	}

	stats := t.session.Stats()
	route := NewLineString(t.session.Waypoints())

	var avgPace *float64
	if stats.TotalDistanceM > 0 {
		p := float64(stats.ElapsedS) / stats.TotalDistanceM * 1000
		avgPace = &p
	}

	completed, err := t.store.CompleteRun(ctx, t.run.ID, t.opts.Now(), stats.TotalDistanceM, stats.ElapsedS, avgPace, route)
	if err != nil {
		return Run{}, err
	}

	t.broadcastStatus(StatusCompleted)
	if err := t.session.Reset(); err != nil {
		return Run{}, err
	}
	return completed, nil
}

// Discard abandons the run without persisting final aggregates. Staged
// waypoints that were never flushed are dropped with it.
func (t *Tracker) Discard() {
	t.stopLoops()
	_ = t.session.Stop()
	_ = t.session.Reset()
}

// stopLoops cancels the position subscription and both timers. Safe to call
// more than once; no session mutation can follow it except finalization.
func (t *Tracker) stopLoops() {
	t.stopOnce.Do(func() {
		close(t.done)
		if t.source != nil {
			t.source.Stop()
		}
		t.wg.Wait()
	})
}

func (t *Tracker) consumeLoop() {
	defer t.wg.Done()
	samples := t.source.Samples()
	errs := t.source.Errors()
	for {
		select {
		case <-t.done:
			return
		case sample, ok := <-samples:
			if !ok {
				samples = nil
				continue
			}
			if wp, accepted := t.pipeline.Offer(sample); accepted {
				t.broadcastWaypoint(wp)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("run %s: position source error: %v", t.run.ID, err)
			t.broadcastError(err)
			if t.opts.AbortOnGPSError {
				// Degrade to no new waypoints; the session stays alive
				// for an explicit stop.
				t.source.Stop()
			}
		}
	}
}

func (t *Tracker) tickLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.session.Tick()
		}
	}
}

func (t *Tracker) flushLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if err := t.buffer.Flush(context.Background()); err != nil {
				// Transient: the batch is requeued and retried next cycle.
				log.Printf("run %s: waypoint flush failed: %v", t.run.ID, err)
			}
		}
	}
}

func (t *Tracker) broadcastWaypoint(wp Waypoint) {
	if t.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"type": "waypoint", "waypoint": wp})
	t.hub.Broadcast(t.run.ID, payload)
}

func (t *Tracker) broadcastStatus(status string) {
	if t.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"type": "status", "status": status})
	t.hub.Broadcast(t.run.ID, payload)
}

func (t *Tracker) broadcastError(err error) {
	if t.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"type": "gps_error", "error": err.Error()})
	t.hub.Broadcast(t.run.ID, payload)
}
