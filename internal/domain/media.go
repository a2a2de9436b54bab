package domain

import (
	"context"
	"time"
)

type MediaFile struct {
	ID          int
	ShowID      int
	FilePath    string
	Description string
	CreatedAt   time.Time
}

type MediaRepository interface {
	Create(ctx context.Context, media *MediaFile) error
	GetById(ctx context.Context, id int) (*MediaFile, error)
	Delete(ctx context.Context, id int) error
}
