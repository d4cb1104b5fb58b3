package run

import (
	"errors"
	"sync"
	"time"

	"backend-fitlog/internal/shared/geo"
)

type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
	StatePaused   State = "paused"
	StateStopped  State = "stopped"
)

var (
	ErrNotIdle     = errors.New("session already in use")
	ErrNotTracking = errors.New("session is not tracking")
	ErrNotPaused   = errors.New("session is not paused")
	ErrNotStopped  = errors.New("session is not stopped")
	ErrNotActive   = errors.New("session is not active")
)

// Session holds the live state of one tracking session. All methods are safe
// for concurrent use; the ingest path, the tick loop and finalization each
// run on their own goroutine.
type Session struct {
	mu sync.Mutex

	now func() time.Time

	state       State
	runID       string
	startTime   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration

	waypoints      []Waypoint
	totalDistanceM float64
	elapsedS       int
	currentPace    float64
	splits         []MileSplit
	lastSplitS     int

	paceWindowS int
}

// Snapshot is a consistent copy of the live stats for display.
type Snapshot struct {
	State          State       `json:"state"`
	RunID          string      `json:"run_id"`
	TotalDistanceM float64     `json:"total_distance_m"`
	ElapsedS       int         `json:"elapsed_s"`
	CurrentPace    float64     `json:"current_pace_s_per_km"`
	Splits         []MileSplit `json:"mile_splits"`
	WaypointCount  int         `json:"waypoint_count"`
}

// NewSession builds an idle session. paceWindowS bounds the trailing window
// used for the instantaneous pace; nowFn defaults to time.Now.
func NewSession(paceWindowS int, nowFn func() time.Time) *Session {
	if paceWindowS <= 0 {
		paceWindowS = 30
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Session{state: StateIdle, paceWindowS: paceWindowS, now: nowFn}
}

// Start transitions idle to tracking and resets every accumulator.
func (s *Session) Start(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrNotIdle
	}
	s.state = StateTracking
	s.runID = runID
	s.startTime = s.now()
	s.pausedAt = time.Time{}
	s.pausedTotal = 0
	s.waypoints = nil
	s.totalDistanceM = 0
	s.elapsedS = 0
	s.currentPace = 0
	s.splits = nil
	s.lastSplitS = 0
	return nil
}

// Pause freezes the elapsed clock; distance, splits and waypoints persist.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTracking {
		return ErrNotTracking
	}
	s.state = StatePaused
	s.pausedAt = s.now()
	return nil
}

// Resume excludes the paused interval from elapsed time and restarts the
// clock where it left off.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return ErrNotPaused
	}
	s.pausedTotal += s.now().Sub(s.pausedAt)
	s.pausedAt = time.Time{}
	s.state = StateTracking
	return nil
}

// Tick recomputes elapsed time from wall-clock deltas. A no-op unless
// tracking; missed ticks self-correct on the next one.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTracking {
		return
	}
	s.elapsedS = int(s.now().Sub(s.startTime)-s.pausedTotal) / int(time.Second)
}

// ElapsedAt returns whole seconds of moving time at t.
func (s *Session) ElapsedAt(t time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startTime.IsZero() {
		return 0
	}
	e := int(t.Sub(s.startTime)-s.pausedTotal) / int(time.Second)
	if e < 0 {
		return 0
	}
	return e
}

// AddWaypoint appends an accepted waypoint, accumulates distance, emits any
// crossed mile splits and refreshes the current pace.
func (s *Session) AddWaypoint(wp Waypoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTracking {
		return ErrNotTracking
	}

	before := s.totalDistanceM
	after := before + wp.SegmentDistanceM

	prevMiles := int(before / geo.MileMeters)
	curMiles := int(after / geo.MileMeters)
	for m := prevMiles + 1; m <= curMiles; m++ {
		timeS := wp.ElapsedS - s.lastSplitS
		s.splits = append(s.splits, MileSplit{
			Mile:       m,
			TimeS:      timeS,
			PaceSPerKm: float64(timeS) / geo.MileMeters * 1000,
		})
		s.lastSplitS = wp.ElapsedS
	}

	s.waypoints = append(s.waypoints, wp)
	s.totalDistanceM = after
	s.currentPace = s.trailingPaceLocked(wp)
	return nil
}

// trailingPaceLocked derives seconds-per-km from the waypoints inside the
// trailing window ending at wp. The window's first waypoint only anchors the
// time span; its segment distance is excluded.
func (s *Session) trailingPaceLocked(wp Waypoint) float64 {
	start := 0
	for i, w := range s.waypoints {
		if wp.ElapsedS-w.ElapsedS <= s.paceWindowS {
			start = i
			break
		}
		start = i + 1
	}
	window := s.waypoints[start:]
	if len(window) < 2 {
		return 0
	}

	var dist float64
	for _, w := range window[1:] {
		dist += w.SegmentDistanceM
	}
	span := window[len(window)-1].ElapsedS - window[0].ElapsedS
	if dist <= 0 || span <= 0 {
		return 0
	}
	return float64(span) / dist * 1000
}

// Stop ends tracking. The session stays queryable for finalization.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateTracking:
		s.elapsedS = int(s.now().Sub(s.startTime)-s.pausedTotal) / int(time.Second)
	case StatePaused:
		// Clock already frozen; keep the last computed elapsed.
	default:
		return ErrNotActive
	}
	s.state = StateStopped
	return nil
}

// Reset returns a stopped session to idle, clearing all state.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStopped {
		return ErrNotStopped
	}
	s.state = StateIdle
	s.runID = ""
	s.startTime = time.Time{}
	s.pausedAt = time.Time{}
	s.pausedTotal = 0
	s.waypoints = nil
	s.totalDistanceM = 0
	s.elapsedS = 0
	s.currentPace = 0
	s.splits = nil
	s.lastSplitS = 0
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// LastWaypoint returns the most recently accepted waypoint, if any.
func (s *Session) LastWaypoint() (Waypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.waypoints) == 0 {
		return Waypoint{}, false
	}
	return s.waypoints[len(s.waypoints)-1], true
}

// Waypoints returns a copy of the accepted waypoints in order.
func (s *Session) Waypoints() []Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Waypoint, len(s.waypoints))
	copy(out, s.waypoints)
	return out
}

func (s *Session) Stats() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	splits := make([]MileSplit, len(s.splits))
	copy(splits, s.splits)
	return Snapshot{
		State:          s.state,
		RunID:          s.runID,
		TotalDistanceM: s.totalDistanceM,
		ElapsedS:       s.elapsedS,
		CurrentPace:    s.currentPace,
		Splits:         splits,
		WaypointCount:  len(s.waypoints),
	}
}
