// Package repotest provides an in-process rating Store for tests.
package repotest

import (
	"context"
	"sort"
	"sync"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/repo"
)

// MemoryStore keeps ratings in process, ordered like repo.RatingRepo.
type MemoryStore struct {
	mu      sync.Mutex
	ratings []entity.StarRating
}

func NewMemoryStore(ratings ...entity.StarRating) *MemoryStore {
	return &MemoryStore{ratings: ratings}
}

func (m *MemoryStore) FindByUserID(ctx context.Context, page entity.Page, userID string) ([]*entity.StarRating, error) {
	page = page.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()

	var mine []entity.StarRating
	for _, r := range m.ratings {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].ID > mine[j].ID
	})

	out := []*entity.StarRating{}
	for i := page.Offset(); i < len(mine) && len(out) < page.Size; i++ {
		r := mine[i]
		out = append(out, &r)
	}
	return out, nil
}

var _ repo.Store = (*MemoryStore)(nil)
