package goal

import "time"

type WeeklyGoal struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ExerciseID string    `json:"exercise_id"`
	WeekStart  string    `json:"week_start"` // Monday, YYYY-MM-DD
	TargetReps int       `json:"target_reps"`
	CreatedAt  time.Time `json:"created_at"`
}

type SetGoalRequest struct {
	ExerciseID string `json:"exercise_id"`
	TargetReps int    `json:"target_reps"`
	WeekStart  string `json:"week_start"` // defaults to the current week
}

// Progress pairs a goal with how much of it is already done this week.
type Progress struct {
	WeeklyGoal
	ExerciseName    string  `json:"exercise_name"`
	CompletedReps   int     `json:"completed_reps"`
	RemainingReps   int     `json:"remaining_reps"`
	PercentComplete float64 `json:"percent_complete"`
}
