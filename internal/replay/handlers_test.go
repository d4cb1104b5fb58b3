package replay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-fitlog/internal/run"

	"github.com/gofiber/fiber/v2"
)

type fakeLister struct {
	waypoints map[string][]run.Waypoint
	err       error
}

func (f *fakeLister) ListWaypoints(_ context.Context, runID string) ([]run.Waypoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.waypoints[runID], nil
}

func newReplayApp(lister *fakeLister) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/runs"), lister)
	return app
}

func TestReplayEndpointReturnsSegments(t *testing.T) {
	lister := &fakeLister{waypoints: map[string][]run.Waypoint{
		"run-1": trail(),
	}}
	app := newReplayApp(lister)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/runs/run-1/replay", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("replay: %v status=%d", err, resp.StatusCode)
	}

	var body struct {
		RunID    string    `json:"run_id"`
		Segments []Segment `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RunID != "run-1" || len(body.Segments) != 4 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Segments[0].Band != BandFast {
		t.Fatalf("unexpected first band: %s", body.Segments[0].Band)
	}
}

func TestReplayEndpointEmptyRun(t *testing.T) {
	app := newReplayApp(&fakeLister{waypoints: map[string][]run.Waypoint{}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/runs/run-1/replay", nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestReplayEndpointStoreError(t *testing.T) {
	app := newReplayApp(&fakeLister{err: errors.New("store down")})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/runs/run-1/replay", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
