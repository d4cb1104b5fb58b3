package position

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrStale is returned for samples older than the configured tolerance.
	ErrStale = errors.New("position sample too old")
	// ErrStopped is returned when offering to a stopped source.
	ErrStopped = errors.New("position source stopped")
	// ErrAcquisitionTimeout is emitted on the error channel when no sample
	// arrives within the acquisition timeout.
	ErrAcquisitionTimeout = errors.New("position acquisition timed out")
)

// Sample is one raw position fix as delivered by a client device.
type Sample struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Altitude   *float64  `json:"altitude,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Source is a continuous position subscription. Samples and Errors stay open
// until Stop; consumers must select on both.
type Source interface {
	Samples() <-chan Sample
	Errors() <-chan error
	Stop()
}

// PushConfig tunes a PushSource. Zero values disable the corresponding check.
type PushConfig struct {
	MaxSampleAge   time.Duration
	AcquireTimeout time.Duration
}

// PushSource adapts externally pushed fixes (HTTP posts from the tracking
// client) into a Source. A watchdog emits ErrAcquisitionTimeout whenever the
// configured window passes without an accepted sample.
type PushSource struct {
	cfg     PushConfig
	samples chan Sample
	errs    chan error

	mu       sync.Mutex
	stopped  bool
	watchdog *time.Timer
	stopOnce sync.Once

	now func() time.Time
}

func NewPush(cfg PushConfig) *PushSource {
	s := &PushSource{
		cfg:     cfg,
		samples: make(chan Sample, 64),
		errs:    make(chan error, 4),
		now:     time.Now,
	}
	if cfg.AcquireTimeout > 0 {
		s.watchdog = time.AfterFunc(cfg.AcquireTimeout, s.acquisitionTimedOut)
	}
	return s
}

func (s *PushSource) Samples() <-chan Sample { return s.samples }
func (s *PushSource) Errors() <-chan error   { return s.errs }

// Offer validates and forwards one sample. Stale samples are rejected but
// still count as signs of a live source, so they reset the watchdog.
func (s *PushSource) Offer(sample Sample) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.watchdog != nil {
		s.watchdog.Reset(s.cfg.AcquireTimeout)
	}
	s.mu.Unlock()

	if s.cfg.MaxSampleAge > 0 && !sample.CapturedAt.IsZero() {
		if s.now().Sub(sample.CapturedAt) > s.cfg.MaxSampleAge {
			return ErrStale
		}
	}

	select {
	case s.samples <- sample:
	default:
		// Consumer is behind; drop rather than block the caller.
	}
	return nil
}

// Stop halts the watchdog and closes both channels. Safe to call twice.
func (s *PushSource) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		if s.watchdog != nil {
			s.watchdog.Stop()
		}
		s.mu.Unlock()
		close(s.samples)
		close(s.errs)
	})
}

func (s *PushSource) acquisitionTimedOut() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.watchdog.Reset(s.cfg.AcquireTimeout)
	s.mu.Unlock()

	select {
	case s.errs <- ErrAcquisitionTimeout:
	default:
	}
}
