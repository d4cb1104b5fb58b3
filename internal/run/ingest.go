package run

import (
	"sync"

	"backend-fitlog/internal/position"
	"backend-fitlog/internal/shared/geo"
)

// DefaultNoiseFloorM is the minimum movement, in meters, for a sample to be
// accepted after the first one. Anything closer is GPS jitter.
const DefaultNoiseFloorM = 2.0

// Pipeline turns raw position samples into accepted waypoints. It is the
// sole mutation point for both the live session and the persistence buffer:
// an accepted sample lands in both, in acceptance order.
type Pipeline struct {
	mu          sync.Mutex
	session     *Session
	buffer      *Buffer
	noiseFloorM float64
}

func NewPipeline(session *Session, buffer *Buffer, noiseFloorM float64) *Pipeline {
	if noiseFloorM <= 0 {
		noiseFloorM = DefaultNoiseFloorM
	}
	return &Pipeline{session: session, buffer: buffer, noiseFloorM: noiseFloorM}
}

// Offer evaluates one raw sample. It reports the accepted waypoint and true,
// or false when the sample was dropped (paused session, or movement below
// the noise floor). Acceptance depends only on the last accepted waypoint
// and the sample itself.
func (p *Pipeline) Offer(sample position.Sample) (Waypoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session.State() != StateTracking {
		return Waypoint{}, false
	}

	segment := 0.0
	if last, ok := p.session.LastWaypoint(); ok {
		segment = geo.HaversineMeters(last.Lat, last.Lng, sample.Lat, sample.Lng)
		if segment < p.noiseFloorM {
			return Waypoint{}, false
		}
	}

	wp := Waypoint{
		RunID:            p.session.RunID(),
		Lat:              sample.Lat,
		Lng:              sample.Lng,
		Altitude:         sample.Altitude,
		Accuracy:         sample.Accuracy,
		CapturedAt:       sample.CapturedAt,
		ElapsedS:         p.session.ElapsedAt(sample.CapturedAt),
		SegmentDistanceM: segment,
	}

	if err := p.session.AddWaypoint(wp); err != nil {
		return Waypoint{}, false
	}
	p.buffer.Enqueue(wp)
	return wp, true
}
