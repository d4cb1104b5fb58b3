package exercise

import "time"

type MuscleGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Exercise struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MuscleGroupID string    `json:"muscle_group_id"`
	Description   string    `json:"description,omitempty"`
	IsCustom      bool      `json:"is_custom"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateExerciseRequest struct {
	Name          string `json:"name"`
	MuscleGroupID string `json:"muscle_group_id"`
	Description   string `json:"description"`
}
