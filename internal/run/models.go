package run

import "time"

const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// Waypoint is one accepted GPS sample with derived segment distance and
// elapsed time. Immutable once created.
type Waypoint struct {
	RunID            string    `json:"run_id"`
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	Altitude         *float64  `json:"altitude,omitempty"`
	Accuracy         *float64  `json:"accuracy,omitempty"`
	CapturedAt       time.Time `json:"captured_at"`
	ElapsedS         int       `json:"elapsed_s"`
	SegmentDistanceM float64   `json:"segment_distance_m"`
}

// MileSplit records the time taken to cover one mile boundary.
type MileSplit struct {
	Mile       int     `json:"mile"`
	TimeS      int     `json:"time_s"`
	PaceSPerKm float64 `json:"pace_s_per_km"`
}

// Run is the durable record of a tracked cardio session.
type Run struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Status         string      `json:"status"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     *time.Time  `json:"finished_at,omitempty"`
	TotalDistanceM float64     `json:"total_distance_m"`
	TotalDurationS int         `json:"total_duration_s"`
	AvgPaceSPerKm  *float64    `json:"avg_pace,omitempty"`
	Route          *LineString `json:"route_geojson,omitempty"`
}

// LineString is the persisted route geometry, longitude first.
type LineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// NewLineString builds route geometry from accepted waypoints in capture
// order.
func NewLineString(wps []Waypoint) LineString {
	coords := make([][2]float64, len(wps))
	for i, wp := range wps {
		coords[i] = [2]float64{wp.Lng, wp.Lat}
	}
	return LineString{Type: "LineString", Coordinates: coords}
}
