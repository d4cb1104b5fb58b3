package run

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"backend-fitlog/internal/db"

	"github.com/google/uuid"
)

// Store persists runs and waypoints.
type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

// CreateRun inserts a new active run for the owner.
func (s *Store) CreateRun(ctx context.Context, userID string) (Run, error) {
	r := Run{ID: uuid.NewString(), UserID: userID, Status: StatusActive}
	row := s.db.QueryRow(ctx, `
		INSERT INTO cardio_runs (id, user_id, status)
		VALUES ($1,$2,$3)
		RETURNING started_at
	`, r.ID, r.UserID, r.Status)
	if err := row.Scan(&r.StartedAt); err != nil {
		return Run{}, err
	}
	return r, nil
}

// InsertWaypoints writes one batch in a single multi-row statement so the
// batch lands atomically.
func (s *Store) InsertWaypoints(ctx context.Context, batch []Waypoint) error {
	if len(batch) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO run_waypoints (id, run_id, lat, lng, altitude, accuracy, captured_at, elapsed_s, segment_distance_m) VALUES `)
	args := make([]any, 0, len(batch)*9)
	for i, wp := range batch {
		if i > 0 {
			sb.WriteString(",")
		}
		base := i * 9
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args, uuid.NewString(), wp.RunID, wp.Lat, wp.Lng, wp.Altitude, wp.Accuracy, wp.CapturedAt, wp.ElapsedS, wp.SegmentDistanceM)
	}

	_, err := s.db.Exec(ctx, sb.String(), args...)
	return err
}

// CompleteRun marks the run finished with its final aggregates and route.
func (s *Store) CompleteRun(ctx context.Context, runID string, finishedAt time.Time, distanceM float64, durationS int, avgPace *float64, route LineString) (Run, error) {
	routeJSON, err := json.Marshal(route)
	if err != nil {
		return Run{}, err
	}

	r := Run{
		ID:             runID,
		Status:         StatusCompleted,
		FinishedAt:     &finishedAt,
		TotalDistanceM: distanceM,
		TotalDurationS: durationS,
		AvgPaceSPerKm:  avgPace,
		Route:          &route,
	}
	row := s.db.QueryRow(ctx, `
		UPDATE cardio_runs
		SET status=$2, finished_at=$3, total_distance_m=$4, total_duration_s=$5, avg_pace=$6, route_geojson=$7
		WHERE id=$1
		RETURNING user_id, started_at
	`, runID, r.Status, finishedAt, distanceM, durationS, avgPace, routeJSON)
	if err := row.Scan(&r.UserID, &r.StartedAt); err != nil {
		return Run{}, err
	}
	return r, nil
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, status, started_at, finished_at, COALESCE(total_distance_m,0), COALESCE(total_duration_s,0), avg_pace, route_geojson
		FROM cardio_runs WHERE id=$1
	`, runID)
	return scanRun(row)
}

func (s *Store) ListRuns(ctx context.Context, userID string) ([]Run, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, status, started_at, finished_at, COALESCE(total_distance_m,0), COALESCE(total_duration_s,0), avg_pace, route_geojson
		FROM cardio_runs WHERE user_id=$1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// ListWaypoints returns a run's persisted waypoints in capture order.
func (s *Store) ListWaypoints(ctx context.Context, runID string) ([]Waypoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT run_id, lat, lng, altitude, accuracy, captured_at, elapsed_s, segment_distance_m
		FROM run_waypoints WHERE run_id=$1
		ORDER BY captured_at
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wps []Waypoint
	for rows.Next() {
		var wp Waypoint
		if err := rows.Scan(&wp.RunID, &wp.Lat, &wp.Lng, &wp.Altitude, &wp.Accuracy, &wp.CapturedAt, &wp.ElapsedS, &wp.SegmentDistanceM); err != nil {
			return nil, err
		}
		wps = append(wps, wp)
	}
	return wps, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var routeJSON []byte
	if err := row.Scan(&r.ID, &r.UserID, &r.Status, &r.StartedAt, &r.FinishedAt, &r.TotalDistanceM, &r.TotalDurationS, &r.AvgPaceSPerKm, &routeJSON); err != nil {
		return Run{}, err
	}
	if len(routeJSON) > 0 {
		var route LineString
		if err := json.Unmarshal(routeJSON, &route); err != nil {
			return Run{}, err
		}
		r.Route = &route
	}
	return r, nil
}
