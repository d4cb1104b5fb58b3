package goal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func goalAuth(c *fiber.Ctx) error {
	c.Locals("user_id", "user-1")
	return c.Next()
}

func newGoalApp(t *testing.T) (*fiber.App, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newGoalMock(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/goals"), NewService(mock, fixedNow), goalAuth)
	return app, mock
}

func TestGoalHandlersSet(t *testing.T) {
	app, mock := newGoalApp(t)

	mock.ExpectQuery(`INSERT INTO weekly_goals`).
		WithArgs(pgxmock.AnyArg(), "user-1", "ex-1", "2025-03-10", 200).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("goal-1", time.Now()))

	body, _ := json.Marshal(SetGoalRequest{ExerciseID: "ex-1", TargetReps: 200})
	req := httptest.NewRequest(http.MethodPut, "/goals/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("set goal: %v status=%d", err, resp.StatusCode)
	}

	var g WeeklyGoal
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil || g.ID != "goal-1" {
		t.Fatalf("decode goal: %v %+v", err, g)
	}
}

func TestGoalHandlersSetBadRequest(t *testing.T) {
	app, _ := newGoalApp(t)

	body := []byte(`{"exercise_id":"","target_reps":0}`)
	req := httptest.NewRequest(http.MethodPut, "/goals/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestGoalHandlersProgress(t *testing.T) {
	app, mock := newGoalApp(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT g.id, g.user_id, g.exercise_id, g.week_start, g.target_reps`).
		WithArgs("user-1", "2025-03-10", "2025-03-16").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "exercise_id", "week_start", "target_reps", "created_at", "name", "completed"}).
			AddRow("goal-1", "user-1", "ex-1", "2025-03-10", 200, now, "Push-up", 60))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/goals/?date=2025-03-12", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("progress: %v status=%d", err, resp.StatusCode)
	}

	var progress []Progress
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil || len(progress) != 1 {
		t.Fatalf("decode progress: %v %+v", err, progress)
	}
	if progress[0].PercentComplete != 30 {
		t.Fatalf("unexpected progress: %+v", progress[0])
	}
}

func TestGoalHandlersDelete(t *testing.T) {
	app, mock := newGoalApp(t)

	mock.ExpectExec(`DELETE FROM weekly_goals`).
		WithArgs("goal-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/goals/goal-1", nil))
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %v status=%d", err, resp.StatusCode)
	}
}
