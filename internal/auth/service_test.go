package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

var pgErr = errors.New("db error")

func newAuthMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestRegisterAndLogin(t *testing.T) {
	mock := newAuthMock(t)

	createdAt := time.Now().Add(-time.Minute)
	updatedAt := time.Now().Add(-time.Minute)

	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs(pgxmock.AnyArg(), "runner@example.com", "runner", pgxmock.AnyArg(), "Runner One", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(createdAt, updatedAt))

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock)
	user, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "runner@example.com",
		Username:    "runner",
		Password:    "password123",
		DisplayName: "Runner One",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected user and tokens")
	}

	passwordHash := user.PasswordHash

	mock.ExpectQuery(`SELECT id, email, username, password_hash, display_name, avatar_url, created_at, updated_at`).
		WithArgs("runner@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "password_hash", "display_name", "avatar_url", "created_at", "updated_at"}).
			AddRow(user.ID, user.Email, user.Username, passwordHash, user.DisplayName, user.AvatarURL, createdAt, updatedAt))

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), user.ID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	_, loginTokens, err := svc.Login(context.Background(), LoginRequest{Email: "runner@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginTokens.AccessToken == "" || loginTokens.RefreshToken == "" {
		t.Fatalf("expected login tokens")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestValidateRefreshToken(t *testing.T) {
	mock := newAuthMock(t)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock)
	tokens, err := svc.GenerateTokens(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	expiresAt := time.Now().Add(5 * time.Minute)
	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-1", expiresAt))

	userID, err := svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user_id: %s", userID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := NewService("test-secret", newAuthMock(t))
	_, _, err := svc.Register(context.Background(), RegisterRequest{Email: "", Username: "u", Password: "p"})
	if err == nil {
		t.Fatalf("expected error for missing email")
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	mock := newAuthMock(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)

	mock.ExpectQuery(`SELECT id, email, username, password_hash, display_name, avatar_url, created_at, updated_at`).
		WithArgs("runner@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "password_hash", "display_name", "avatar_url", "created_at", "updated_at"}).
			AddRow("user-1", "runner@example.com", "runner", string(hash), "", "", time.Now(), time.Now()))

	svc := NewService("test-secret", mock)
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "runner@example.com", Password: "wrong"})
	if err == nil {
		t.Fatalf("expected invalid credentials")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGenerateTokensSaveRefreshError(t *testing.T) {
	mock := newAuthMock(t)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgErr)

	svc := NewService("test-secret", mock)
	if _, err := svc.GenerateTokens(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateAccessTokenInvalid(t *testing.T) {
	svc := NewService("test-secret", nil)
	if _, err := svc.ValidateAccessToken("invalid-token"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", nil)
	token, err := issuer.signToken("user-1", accessTokenTTL)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	verifier := NewService("secret-b", nil)
	if _, err := verifier.ValidateAccessToken(token); err == nil {
		t.Fatalf("token signed with another secret must not verify")
	}
}

func TestRegisterDBError(t *testing.T) {
	mock := newAuthMock(t)

	mock.ExpectQuery(`INSERT INTO profiles`).
		WithArgs(pgxmock.AnyArg(), "runner@example.com", "runner", pgxmock.AnyArg(), "", "").
		WillReturnError(pgErr)

	svc := NewService("test-secret", mock)
	_, _, err := svc.Register(context.Background(), RegisterRequest{Email: "runner@example.com", Username: "runner", Password: "pass"})
	if err == nil {
		t.Fatalf("expected db error")
	}
}

func TestLoginQueryError(t *testing.T) {
	mock := newAuthMock(t)

	mock.ExpectQuery(`SELECT id, email, username, password_hash, display_name, avatar_url, created_at, updated_at`).
		WithArgs("runner@example.com").
		WillReturnError(pgErr)

	svc := NewService("test-secret", mock)
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "runner@example.com", Password: "pass"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateRefreshTokenExpired(t *testing.T) {
	mock := newAuthMock(t)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-2", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService("test-secret", mock)
	tokens, err := svc.GenerateTokens(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expires_at"}).AddRow("user-2", time.Now().Add(-time.Minute)))

	if _, err := svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatalf("expected expired token error")
	}
}

func TestValidateRefreshTokenLookupError(t *testing.T) {
	mock := newAuthMock(t)
	svc := NewService("test-secret", mock)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), "user-3", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tokens, err := svc.GenerateTokens(context.Background(), "user-3")
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	mock.ExpectQuery(`SELECT user_id, expires_at`).
		WithArgs(tokens.RefreshToken).
		WillReturnError(pgErr)

	if _, err := svc.ValidateRefreshToken(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetAndUpdateProfile(t *testing.T) {
	mock := newAuthMock(t)
	svc := NewService("test-secret", mock)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, email, username, display_name, avatar_url, created_at, updated_at`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "display_name", "avatar_url", "created_at", "updated_at"}).
			AddRow("user-1", "runner@example.com", "runner", "Runner", "", now, now))

	user, err := svc.GetUser(context.Background(), "user-1")
	if err != nil || user.Username != "runner" {
		t.Fatalf("get user: %v %+v", err, user)
	}

	mock.ExpectQuery(`UPDATE profiles`).
		WithArgs("user-1", "Runner Two", "https://cdn/avatar.png").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "username", "display_name", "avatar_url", "created_at", "updated_at"}).
			AddRow("user-1", "runner@example.com", "runner", "Runner Two", "https://cdn/avatar.png", now, now))

	updated, err := svc.UpdateProfile(context.Background(), "user-1", UpdateProfileRequest{
		DisplayName: "Runner Two",
		AvatarURL:   "https://cdn/avatar.png",
	})
	if err != nil || updated.DisplayName != "Runner Two" {
		t.Fatalf("update profile: %v %+v", err, updated)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
