package entity

import (
	"math"
	"time"
)

// StarRating is a score an account left on a comic. The identity service only
// reads these.
type StarRating struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	ComicID   string    `db:"comic_id" json:"comicId"`
	Rating    float64   `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps Number*Size within int.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

// Page selects a window of results. Number is zero-based.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the row offset of the normalized page.
func (p Page) Offset() int {
	p = p.Normalize()
	return p.Number * p.Size
}
