package exercise

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var dbErr = errors.New("db error")

func newExerciseMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestMuscleGroups(t *testing.T) {
	mock := newExerciseMock(t)

	mock.ExpectQuery(`SELECT id, name FROM muscle_groups`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow("mg-1", "Chest").
			AddRow("mg-2", "Legs"))

	svc := NewService(mock)
	groups, err := svc.MuscleGroups(context.Background())
	if err != nil {
		t.Fatalf("muscle groups: %v", err)
	}
	if len(groups) != 2 || groups[0].Name != "Chest" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}

func TestListFiltersByMuscleGroup(t *testing.T) {
	mock := newExerciseMock(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, name, muscle_group_id`).
		WithArgs("user-1", "mg-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "muscle_group_id", "description", "is_custom", "created_by", "created_at"}).
			AddRow("ex-1", "Push-up", "mg-1", "", false, "", now))

	svc := NewService(mock)
	exercises, err := svc.List(context.Background(), "user-1", "mg-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(exercises) != 1 || exercises[0].Name != "Push-up" {
		t.Fatalf("unexpected exercises: %+v", exercises)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListAll(t *testing.T) {
	mock := newExerciseMock(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, name, muscle_group_id`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "muscle_group_id", "description", "is_custom", "created_by", "created_at"}).
			AddRow("ex-1", "Push-up", "mg-1", "", false, "", now).
			AddRow("ex-2", "Weighted dip", "mg-1", "", true, "user-1", now))

	svc := NewService(mock)
	exercises, err := svc.List(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(exercises) != 2 || !exercises[1].IsCustom {
		t.Fatalf("unexpected exercises: %+v", exercises)
	}
}

func TestCreateCustom(t *testing.T) {
	mock := newExerciseMock(t)

	mock.ExpectQuery(`INSERT INTO exercises`).
		WithArgs(pgxmock.AnyArg(), "Archer push-up", "mg-1", "one side loaded", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService(mock)
	e, err := svc.CreateCustom(context.Background(), "user-1", CreateExerciseRequest{
		Name:          "Archer push-up",
		MuscleGroupID: "mg-1",
		Description:   "one side loaded",
	})
	if err != nil {
		t.Fatalf("create custom: %v", err)
	}
	if e.ID == "" || !e.IsCustom || e.CreatedBy != "user-1" {
		t.Fatalf("unexpected exercise: %+v", e)
	}
}

func TestCreateCustomMissingFields(t *testing.T) {
	svc := NewService(newExerciseMock(t))
	if _, err := svc.CreateCustom(context.Background(), "user-1", CreateExerciseRequest{Name: "x"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDeleteCustomOwnership(t *testing.T) {
	mock := newExerciseMock(t)
	svc := NewService(mock)
	now := time.Now()

	// built-in: refused
	mock.ExpectQuery(`SELECT id, name, muscle_group_id`).
		WithArgs("ex-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "muscle_group_id", "description", "is_custom", "created_by", "created_at"}).
			AddRow("ex-1", "Push-up", "mg-1", "", false, "", now))
	if err := svc.DeleteCustom(context.Background(), "user-1", "ex-1"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	// someone else's custom: refused
	mock.ExpectQuery(`SELECT id, name, muscle_group_id`).
		WithArgs("ex-2").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "muscle_group_id", "description", "is_custom", "created_by", "created_at"}).
			AddRow("ex-2", "Dip", "mg-1", "", true, "user-2", now))
	if err := svc.DeleteCustom(context.Background(), "user-1", "ex-2"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	// own custom: deleted
	mock.ExpectQuery(`SELECT id, name, muscle_group_id`).
		WithArgs("ex-3").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "muscle_group_id", "description", "is_custom", "created_by", "created_at"}).
			AddRow("ex-3", "Dip", "mg-1", "", true, "user-1", now))
	mock.ExpectExec(`DELETE FROM exercises`).
		WithArgs("ex-3").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := svc.DeleteCustom(context.Background(), "user-1", "ex-3"); err != nil {
		t.Fatalf("delete custom: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListQueryError(t *testing.T) {
	mock := newExerciseMock(t)
	mock.ExpectQuery(`SELECT id, name, muscle_group_id`).WillReturnError(dbErr)

	svc := NewService(mock)
	if _, err := svc.List(context.Background(), "user-1", ""); err == nil {
		t.Fatalf("expected error")
	}
}
