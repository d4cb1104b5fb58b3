package workout

import "time"

// DailyLog records one exercise performed on one day. Volume is reps*sets.
type DailyLog struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ExerciseID string    `json:"exercise_id"`
	LogDate    time.Time `json:"log_date"`
	Reps       int       `json:"reps"`
	Sets       int       `json:"sets"`
	CreatedAt  time.Time `json:"created_at"`
}

func (l DailyLog) Volume() int { return l.Reps * l.Sets }

type LogRequest struct {
	ExerciseID string `json:"exercise_id"`
	LogDate    string `json:"log_date"` // YYYY-MM-DD, defaults to today
	Reps       int    `json:"reps"`
	Sets       int    `json:"sets"`
}

// ExerciseVolume is the aggregated weekly volume for one exercise.
type ExerciseVolume struct {
	ExerciseID   string `json:"exercise_id"`
	ExerciseName string `json:"exercise_name"`
	TotalReps    int    `json:"total_reps"`
}

// Suggestion ranks an exercise by how far behind its weekly goal the user is.
type Suggestion struct {
	ExerciseID    string  `json:"exercise_id"`
	ExerciseName  string  `json:"exercise_name"`
	MuscleGroupID string  `json:"muscle_group_id"`
	TargetReps    int     `json:"target_reps"`
	CompletedReps int     `json:"completed_reps"`
	RemainingReps int     `json:"remaining_reps"`
	DeficitRatio  float64 `json:"deficit_ratio"`
	SuggestedReps int     `json:"suggested_reps"`
}
