package workout

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"backend-fitlog/internal/db"
	"backend-fitlog/internal/shared/week"

	"github.com/google/uuid"
)

// Behind-schedule muscle groups trained yesterday get their urgency halved so
// the plan rotates instead of hammering the same group daily.
const trainedYesterdayPenalty = 0.5

const maxSuggestions = 8

// Goals within bonusDeficitCeiling of completion qualify for the bonus round.
const (
	bonusDeficitCeiling = 0.15
	maxBonus            = 3
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

// Log upserts the day's entry for an exercise. Logging the same exercise
// twice on one day replaces the reps and sets.
func (s *Service) Log(ctx context.Context, userID string, req LogRequest) (DailyLog, error) {
	if req.ExerciseID == "" || req.Reps <= 0 || req.Sets <= 0 {
		return DailyLog{}, errors.New("exercise_id, positive reps and sets required")
	}

	logDate := s.now()
	if req.LogDate != "" {
		parsed, err := time.Parse("2006-01-02", req.LogDate)
		if err != nil {
			return DailyLog{}, errors.New("log_date must be YYYY-MM-DD")
		}
		logDate = parsed
	}

	entry := DailyLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		ExerciseID: req.ExerciseID,
		LogDate:    logDate,
		Reps:       req.Reps,
		Sets:       req.Sets,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO daily_logs (id, user_id, exercise_id, log_date, reps, sets)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id, exercise_id, log_date) DO UPDATE
		SET reps=EXCLUDED.reps, sets=EXCLUDED.sets
		RETURNING id, created_at
	`, entry.ID, entry.UserID, entry.ExerciseID, entry.LogDate.Format("2006-01-02"), entry.Reps, entry.Sets)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return DailyLog{}, err
	}
	return entry, nil
}

// LogsForDay lists what the user did on one date.
func (s *Service) LogsForDay(ctx context.Context, userID, date string) ([]DailyLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, exercise_id, log_date, reps, sets, created_at
		FROM daily_logs
		WHERE user_id = $1 AND log_date = $2
		ORDER BY created_at
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []DailyLog
	for rows.Next() {
		var l DailyLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.ExerciseID, &l.LogDate, &l.Reps, &l.Sets, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (s *Service) DeleteLog(ctx context.Context, userID, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM daily_logs WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

// WeeklyVolume sums reps*sets per exercise for the week containing the given
// date.
func (s *Service) WeeklyVolume(ctx context.Context, userID string, at time.Time) ([]ExerciseVolume, error) {
	rows, err := s.db.Query(ctx, `
		SELECT l.exercise_id, e.name, COALESCE(SUM(l.reps * l.sets), 0)
		FROM daily_logs l
		JOIN exercises e ON e.id = l.exercise_id
		WHERE l.user_id = $1 AND l.log_date BETWEEN $2 AND $3
		GROUP BY l.exercise_id, e.name
		ORDER BY e.name
	`, userID, week.Start(at), week.End(at))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var volumes []ExerciseVolume
	for rows.Next() {
		var v ExerciseVolume
		if err := rows.Scan(&v.ExerciseID, &v.ExerciseName, &v.TotalReps); err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}
	return volumes, nil
}

// Suggestions ranks the week's goals by deficit and proposes a daily dose for
// the most neglected exercises.
func (s *Service) Suggestions(ctx context.Context, userID string) ([]Suggestion, error) {
	now := s.now()

	candidates, err := s.goalProgress(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	trained, err := s.muscleGroupsTrainedOn(ctx, userID, now.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	daysLeft := week.DaysLeft(now)
	if daysLeft < 1 {
		daysLeft = 1
	}

	var suggestions []Suggestion
	for _, c := range candidates {
		remaining := c.TargetReps - c.CompletedReps
		if remaining <= 0 || c.TargetReps <= 0 {
			continue
		}
		ratio := float64(remaining) / float64(c.TargetReps)
		if trained[c.MuscleGroupID] {
			ratio *= trainedYesterdayPenalty
		}
		c.RemainingReps = remaining
		c.DeficitRatio = ratio
		c.SuggestedReps = int(math.Ceil(float64(remaining) / float64(daysLeft)))
		suggestions = append(suggestions, c)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].DeficitRatio > suggestions[j].DeficitRatio
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

// Bonus picks goals that are nearly met so one short extra set can close them
// out: open deficits of at most 15%, smallest remaining first, capped at 3.
func (s *Service) Bonus(ctx context.Context, userID string) ([]Suggestion, error) {
	candidates, err := s.goalProgress(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	var bonus []Suggestion
	for _, c := range candidates {
		remaining := c.TargetReps - c.CompletedReps
		if remaining <= 0 || c.TargetReps <= 0 {
			continue
		}
		ratio := float64(remaining) / float64(c.TargetReps)
		if ratio > bonusDeficitCeiling {
			continue
		}
		c.RemainingReps = remaining
		c.DeficitRatio = ratio
		c.SuggestedReps = remaining
		bonus = append(bonus, c)
	}

	sort.SliceStable(bonus, func(i, j int) bool {
		return bonus[i].RemainingReps < bonus[j].RemainingReps
	})
	if len(bonus) > maxBonus {
		bonus = bonus[:maxBonus]
	}
	return bonus, nil
}

func (s *Service) goalProgress(ctx context.Context, userID string, at time.Time) ([]Suggestion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.exercise_id, e.name, e.muscle_group_id, g.target_reps,
		       COALESCE(SUM(l.reps * l.sets), 0)
		FROM weekly_goals g
		JOIN exercises e ON e.id = g.exercise_id
		LEFT JOIN daily_logs l
		       ON l.user_id = g.user_id
		      AND l.exercise_id = g.exercise_id
		      AND l.log_date BETWEEN g.week_start AND $3
		WHERE g.user_id = $1 AND g.week_start = $2
		GROUP BY g.exercise_id, e.name, e.muscle_group_id, g.target_reps
	`, userID, week.Start(at), week.End(at))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Suggestion
	for rows.Next() {
		var c Suggestion
		if err := rows.Scan(&c.ExerciseID, &c.ExerciseName, &c.MuscleGroupID, &c.TargetReps, &c.CompletedReps); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) muscleGroupsTrainedOn(ctx context.Context, userID string, day time.Time) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT e.muscle_group_id
		FROM daily_logs l
		JOIN exercises e ON e.id = l.exercise_id
		WHERE l.user_id = $1 AND l.log_date = $2
	`, userID, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trained := map[string]bool{}
	for rows.Next() {
		var mg string
		if err := rows.Scan(&mg); err != nil {
			return nil, err
		}
		trained[mg] = true
	}
	return trained, nil
}
