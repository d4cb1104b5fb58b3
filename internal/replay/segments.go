package replay

import (
	"backend-fitlog/internal/run"
)

type PaceBand string

const (
	BandFast     PaceBand = "fast"
	BandModerate PaceBand = "moderate"
	BandSlow     PaceBand = "slow"
)

// Pace thresholds in seconds per kilometer.
const (
	fastPaceCeiling     = 300.0
	moderatePaceCeiling = 360.0

	// Sentinel pace for segments with no measurable distance.
	stationaryPace = 999.0
)

// Segment is one leg of a replayed route, between two consecutive waypoints.
type Segment struct {
	From      [2]float64 `json:"from"` // [lng, lat]
	To        [2]float64 `json:"to"`
	DistanceM float64    `json:"distance_m"`
	DurationS int        `json:"duration_s"`
	PaceSPKm  float64    `json:"pace_s_per_km"`
	Band      PaceBand   `json:"band"`
}

// BuildSegments derives pace-banded legs from an ordered waypoint trail.
// Fewer than two waypoints yields no segments.
func BuildSegments(waypoints []run.Waypoint) []Segment {
	if len(waypoints) < 2 {
		return nil
	}

	segments := make([]Segment, 0, len(waypoints)-1)
	for i := 1; i < len(waypoints); i++ {
		prev, cur := waypoints[i-1], waypoints[i]
		dist := cur.SegmentDistanceM
		dur := cur.ElapsedS - prev.ElapsedS

		pace := stationaryPace
		if dist > 0 {
			pace = float64(dur) / dist * 1000
		}

		segments = append(segments, Segment{
			From:      [2]float64{prev.Lng, prev.Lat},
			To:        [2]float64{cur.Lng, cur.Lat},
			DistanceM: dist,
			DurationS: dur,
			PaceSPKm:  pace,
			Band:      bandFor(pace),
		})
	}
	return segments
}

func bandFor(pace float64) PaceBand {
	switch {
	case pace < fastPaceCeiling:
		return BandFast
	case pace < moderatePaceCeiling:
		return BandModerate
	default:
		return BandSlow
	}
}
