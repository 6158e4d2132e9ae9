package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/entity"
)

// Store reads star ratings by owning account.
type Store interface {
	// FindByUserID returns one page of the account's ratings, newest first.
	// An unknown account yields an empty slice.
	FindByUserID(ctx context.Context, page entity.Page, userID string) ([]*entity.StarRating, error)
}

// RatingRepo reads the star_ratings table.
type RatingRepo struct {
	db *sqlx.DB
}

func NewRatingRepo(db *sqlx.DB) *RatingRepo { return &RatingRepo{db: db} }

func (r *RatingRepo) FindByUserID(ctx context.Context, page entity.Page, userID string) ([]*entity.StarRating, error) {
	page = page.Normalize()
	const q = `SELECT id, user_id, comic_id, rating, created_at
		FROM star_ratings WHERE user_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	out := []*entity.StarRating{}
	if err := r.db.SelectContext(ctx, &out, q, userID, page.Size, page.Offset()); err != nil {
		return nil, err
	}
	return out, nil
}
