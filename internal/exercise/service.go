package exercise

import (
	"context"
	"errors"

	"backend-fitlog/internal/db"

	"github.com/google/uuid"
)

var ErrNotOwner = errors.New("only the creator can delete a custom exercise")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) MuscleGroups(ctx context.Context) ([]MuscleGroup, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name FROM muscle_groups ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []MuscleGroup
	for rows.Next() {
		var g MuscleGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// List returns the catalog: built-in exercises plus the user's custom ones.
// muscleGroupID narrows the list when non-empty.
func (s *Service) List(ctx context.Context, userID, muscleGroupID string) ([]Exercise, error) {
	query := `
		SELECT id, name, muscle_group_id, COALESCE(description,''), is_custom, COALESCE(created_by,''), created_at
		FROM exercises
		WHERE (is_custom = false OR created_by = $1)
	`
	args := []any{userID}
	if muscleGroupID != "" {
		query += ` AND muscle_group_id = $2`
		args = append(args, muscleGroupID)
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []Exercise
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.MuscleGroupID, &e.Description, &e.IsCustom, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}
	return exercises, nil
}

func (s *Service) Get(ctx context.Context, id string) (Exercise, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, muscle_group_id, COALESCE(description,''), is_custom, COALESCE(created_by,''), created_at
		FROM exercises WHERE id = $1
	`, id)

	var e Exercise
	if err := row.Scan(&e.ID, &e.Name, &e.MuscleGroupID, &e.Description, &e.IsCustom, &e.CreatedBy, &e.CreatedAt); err != nil {
		return Exercise{}, err
	}
	return e, nil
}

// CreateCustom adds a user-defined exercise to the catalog.
func (s *Service) CreateCustom(ctx context.Context, userID string, req CreateExerciseRequest) (Exercise, error) {
	if req.Name == "" || req.MuscleGroupID == "" {
		return Exercise{}, errors.New("name and muscle_group_id required")
	}

	e := Exercise{
		ID:            uuid.NewString(),
		Name:          req.Name,
		MuscleGroupID: req.MuscleGroupID,
		Description:   req.Description,
		IsCustom:      true,
		CreatedBy:     userID,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO exercises (id, name, muscle_group_id, description, is_custom, created_by)
		VALUES ($1,$2,$3,$4,true,$5)
		RETURNING created_at
	`, e.ID, e.Name, e.MuscleGroupID, e.Description, e.CreatedBy)
	if err := row.Scan(&e.CreatedAt); err != nil {
		return Exercise{}, err
	}
	return e, nil
}

// DeleteCustom removes a custom exercise. Built-in exercises and other users'
// customs are untouchable.
func (s *Service) DeleteCustom(ctx context.Context, userID, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !e.IsCustom || e.CreatedBy != userID {
		return ErrNotOwner
	}
	_, err = s.db.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	return err
}
