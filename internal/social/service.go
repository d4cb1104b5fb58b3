package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"backend-fitlog/internal/db"
	"backend-fitlog/internal/shared/week"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSelfFriend   = errors.New("cannot befriend yourself")
	ErrBadStatus    = errors.New("status must be accepted, rejected or blocked")
	ErrNotAddressee = errors.New("only the addressee can respond to a request")
)

const (
	leaderboardTTL = 60 * time.Second
	feedLimit      = 20
	searchLimit    = 20
)

type Service struct {
	db    db.Querier
	redis *redis.Client
	now   func() time.Time
}

func NewService(querier db.Querier, redisClient *redis.Client, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{db: querier, redis: redisClient, now: nowFn}
}

// RequestFriend opens a pending friendship toward another user.
func (s *Service) RequestFriend(ctx context.Context, requesterID, addresseeID string) (Friendship, error) {
	if requesterID == addresseeID {
		return Friendship{}, ErrSelfFriend
	}

	f := Friendship{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      StatusPending,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO friendships (id, requester_id, addressee_id, status)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, f.ID, f.RequesterID, f.AddresseeID, f.Status)
	if err := row.Scan(&f.CreatedAt); err != nil {
		return Friendship{}, err
	}
	return f, nil
}

// Respond settles a pending request. Only the addressee may respond.
func (s *Service) Respond(ctx context.Context, userID, friendshipID, status string) (Friendship, error) {
	switch status {
	case StatusAccepted, StatusRejected, StatusBlocked:
	default:
		return Friendship{}, ErrBadStatus
	}

	row := s.db.QueryRow(ctx, `
		UPDATE friendships
		SET status = $3
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
		RETURNING id, requester_id, addressee_id, status, created_at
	`, friendshipID, userID, status)

	var f Friendship
	if err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt); err != nil {
		return Friendship{}, ErrNotAddressee
	}
	return f, nil
}

// Friends lists the accepted friends of a user.
func (s *Service) Friends(ctx context.Context, userID string) ([]UserSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.username, p.display_name, p.avatar_url
		FROM friendships f
		JOIN profiles p
		  ON p.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = 'accepted'
		ORDER BY p.username
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// PendingRequests lists requests waiting on the user's answer.
func (s *Service) PendingRequests(ctx context.Context, userID string) ([]Friendship, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, requester_id, addressee_id, status, created_at
		FROM friendships
		WHERE addressee_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Friendship
	for rows.Next() {
		var f Friendship
		if err := rows.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// SearchUsers matches usernames and display names.
func (s *Service) SearchUsers(ctx context.Context, query string) ([]UserSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username, display_name, avatar_url
		FROM profiles
		WHERE username ILIKE '%' || $1 || '%' OR display_name ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT $2
	`, query, searchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// Leaderboard ranks the user and their friends by total volume for the
// current week. Results are cached briefly; the board tolerates being up to
// a minute stale.
func (s *Service) Leaderboard(ctx context.Context, userID string) ([]LeaderboardEntry, error) {
	weekStart := week.Start(s.now())
	cacheKey := fmt.Sprintf("leaderboard:%s:%s", userID, weekStart)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var entries []LeaderboardEntry
			if err := json.Unmarshal(cached, &entries); err == nil {
				return entries, nil
			}
		}
	}

	entries, err := s.queryLeaderboard(ctx, userID, weekStart, week.End(s.now()))
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.redis.Set(ctx, cacheKey, payload, leaderboardTTL).Err(); err != nil {
				log.Printf("leaderboard cache write failed: %v", err)
			}
		}
	}
	return entries, nil
}

func (s *Service) queryLeaderboard(ctx context.Context, userID, weekStart, weekEnd string) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.username, p.display_name, COALESCE(SUM(l.reps * l.sets), 0) AS total
		FROM profiles p
		LEFT JOIN daily_logs l ON l.user_id = p.id AND l.log_date BETWEEN $2 AND $3
		WHERE p.id = $1 OR p.id IN (
			SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
			FROM friendships
			WHERE (requester_id = $1 OR addressee_id = $1) AND status = 'accepted'
		)
		GROUP BY p.id, p.username, p.display_name
		ORDER BY total DESC, p.username
	`, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.DisplayName, &e.TotalReps); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, nil
}

// Feed interleaves the latest finished runs and logged workouts of the user
// and their friends, newest first.
func (s *Service) Feed(ctx context.Context, userID string) ([]ActivityItem, error) {
	runs, err := s.recentRuns(ctx, userID)
	if err != nil {
		return nil, err
	}
	workouts, err := s.recentWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}

	feed := append(runs, workouts...)
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].OccurredAt.After(feed[j].OccurredAt)
	})
	if len(feed) > feedLimit {
		feed = feed[:feedLimit]
	}
	return feed, nil
}

func (s *Service) recentRuns(ctx context.Context, userID string) ([]ActivityItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.user_id, p.username, r.total_distance_m, r.total_duration_s, r.finished_at
		FROM cardio_runs r
		JOIN profiles p ON p.id = r.user_id
		WHERE r.status = 'completed' AND r.finished_at IS NOT NULL
		  AND (r.user_id = $1 OR r.user_id IN (
			SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
			FROM friendships
			WHERE (requester_id = $1 OR addressee_id = $1) AND status = 'accepted'
		  ))
		ORDER BY r.finished_at DESC
		LIMIT $2
	`, userID, feedLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ActivityItem
	for rows.Next() {
		item := ActivityItem{Type: "run"}
		if err := rows.Scan(&item.RunID, &item.UserID, &item.Username, &item.DistanceM, &item.DurationS, &item.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) recentWorkouts(ctx context.Context, userID string) ([]ActivityItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT l.user_id, p.username, e.name, l.reps, l.sets, l.created_at
		FROM daily_logs l
		JOIN profiles p ON p.id = l.user_id
		JOIN exercises e ON e.id = l.exercise_id
		WHERE l.user_id = $1 OR l.user_id IN (
			SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
			FROM friendships
			WHERE (requester_id = $1 OR addressee_id = $1) AND status = 'accepted'
		)
		ORDER BY l.created_at DESC
		LIMIT $2
	`, userID, feedLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ActivityItem
	for rows.Next() {
		item := ActivityItem{Type: "workout"}
		if err := rows.Scan(&item.UserID, &item.Username, &item.ExerciseName, &item.Reps, &item.Sets, &item.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func scanUsers(rows interface {
	Next() bool
	Scan(dest ...any) error
}) ([]UserSummary, error) {
	var out []UserSummary
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
