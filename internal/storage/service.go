package storage

import (
	"context"
	"errors"
	"time"

	"backend-fitlog/internal/db"

	"github.com/google/uuid"
)

const (
	KindAvatar   = "avatar"
	KindRunPhoto = "run_photo"

	urlTTL = 15 * time.Minute
)

var ErrBadKind = errors.New("kind must be avatar or run_photo")

type Object struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	db      db.Querier
	baseURL string
	now     func() time.Time
}

func NewService(querier db.Querier, baseURL string, nowFn func() time.Time) *Service {
	if baseURL == "" {
		baseURL = "https://storage.example"
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{db: querier, baseURL: baseURL, now: nowFn}
}

// SaveObject records an uploaded file and hands back its serving URL.
func (s *Service) SaveObject(ctx context.Context, userID, fileName, kind string) (Object, error) {
	if kind != KindAvatar && kind != KindRunPhoto {
		return Object{}, ErrBadKind
	}
	if fileName == "" {
		fileName = "upload"
	}

	obj := Object{
		ID:        uuid.NewString(),
		URL:       s.baseURL + "/" + fileName,
		ExpiresAt: s.now().Add(urlTTL),
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, obj.ID, userID, obj.URL, kind)
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}
