package goal

import (
	"context"
	"errors"
	"time"

	"backend-fitlog/internal/db"
	"backend-fitlog/internal/shared/week"

	"github.com/google/uuid"
)

type Service struct {
	db  db.Querier
	now func() time.Time
}

func NewService(querier db.Querier, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{db: querier, now: nowFn}
}

// Set upserts the weekly target for an exercise. Setting the same exercise
// and week again replaces the target.
func (s *Service) Set(ctx context.Context, userID string, req SetGoalRequest) (WeeklyGoal, error) {
	if req.ExerciseID == "" || req.TargetReps <= 0 {
		return WeeklyGoal{}, errors.New("exercise_id and positive target_reps required")
	}

	weekStart := req.WeekStart
	if weekStart == "" {
		weekStart = week.Start(s.now())
	} else if parsed, err := time.Parse("2006-01-02", weekStart); err != nil {
		return WeeklyGoal{}, errors.New("week_start must be YYYY-MM-DD")
	} else if week.Start(parsed) != weekStart {
		return WeeklyGoal{}, errors.New("week_start must be a Monday")
	}

	g := WeeklyGoal{
		ID:         uuid.NewString(),
		UserID:     userID,
		ExerciseID: req.ExerciseID,
		WeekStart:  weekStart,
		TargetReps: req.TargetReps,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO weekly_goals (id, user_id, exercise_id, week_start, target_reps)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, exercise_id, week_start) DO UPDATE
		SET target_reps = EXCLUDED.target_reps
		RETURNING id, created_at
	`, g.ID, g.UserID, g.ExerciseID, g.WeekStart, g.TargetReps)
	if err := row.Scan(&g.ID, &g.CreatedAt); err != nil {
		return WeeklyGoal{}, err
	}
	return g, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM weekly_goals WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

// ListProgress returns every goal of the week containing `at`, each with the
// volume already logged against it.
func (s *Service) ListProgress(ctx context.Context, userID string, at time.Time) ([]Progress, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.user_id, g.exercise_id, g.week_start, g.target_reps, g.created_at,
		       e.name, COALESCE(SUM(l.reps * l.sets), 0)
		FROM weekly_goals g
		JOIN exercises e ON e.id = g.exercise_id
		LEFT JOIN daily_logs l
		       ON l.user_id = g.user_id
		      AND l.exercise_id = g.exercise_id
		      AND l.log_date BETWEEN g.week_start AND $3
		WHERE g.user_id = $1 AND g.week_start = $2
		GROUP BY g.id, g.user_id, g.exercise_id, g.week_start, g.target_reps, g.created_at, e.name
		ORDER BY e.name
	`, userID, week.Start(at), week.End(at))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Progress
	for rows.Next() {
		var p Progress
		if err := rows.Scan(&p.ID, &p.UserID, &p.ExerciseID, &p.WeekStart, &p.TargetReps, &p.CreatedAt, &p.ExerciseName, &p.CompletedReps); err != nil {
			return nil, err
		}
		p.RemainingReps = p.TargetReps - p.CompletedReps
		if p.RemainingReps < 0 {
			p.RemainingReps = 0
		}
		if p.TargetReps > 0 {
			p.PercentComplete = float64(p.CompletedReps) / float64(p.TargetReps) * 100
			if p.PercentComplete > 100 {
				p.PercentComplete = 100
			}
		}
		out = append(out, p)
	}
	return out, nil
}
