package social

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusBlocked  = "blocked"
)

type Friendship struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	AddresseeID string    `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// LeaderboardEntry ranks a user by total weekly volume among their friends.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	TotalReps   int    `json:"total_reps"`
}

// ActivityItem is one entry of the friends feed: a finished run or a logged
// workout.
type ActivityItem struct {
	Type       string    `json:"type"` // run | workout
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`

	// run fields
	RunID      string  `json:"run_id,omitempty"`
	DistanceM  float64 `json:"distance_m,omitempty"`
	DurationS  int     `json:"duration_s,omitempty"`

	// workout fields
	ExerciseName string `json:"exercise_name,omitempty"`
	Reps         int    `json:"reps,omitempty"`
	Sets         int    `json:"sets,omitempty"`
}
