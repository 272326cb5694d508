package ports

import (
	"context"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// FootprintRepository persists estimated footprints.
type FootprintRepository interface {
	Save(ctx context.Context, rec *domain.FootprintRecord) error
	// GetByID returns domain.ErrNotFound when no record matches.
	GetByID(ctx context.Context, id string) (*domain.FootprintRecord, error)
	// List returns a page of records, newest first, and the total count.
	List(ctx context.Context, offset, limit int) ([]domain.FootprintRecord, int, error)
	Delete(ctx context.Context, id string) error
}
