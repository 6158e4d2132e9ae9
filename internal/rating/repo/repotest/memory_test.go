package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/entity"
)

func TestMemoryStore_PagesNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore(
		entity.StarRating{ID: "r1", UserID: "u1", ComicID: "c1", Rating: 4, CreatedAt: base},
		entity.StarRating{ID: "r2", UserID: "u1", ComicID: "c2", Rating: 5, CreatedAt: base.Add(time.Hour)},
		entity.StarRating{ID: "r3", UserID: "u2", ComicID: "c1", Rating: 1, CreatedAt: base.Add(2 * time.Hour)},
		entity.StarRating{ID: "r4", UserID: "u1", ComicID: "c3", Rating: 3, CreatedAt: base.Add(3 * time.Hour)},
	)
	ctx := context.Background()

	first, err := m.FindByUserID(ctx, entity.Page{Number: 0, Size: 2}, "u1")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "r4", first[0].ID)
	assert.Equal(t, "r2", first[1].ID)

	second, err := m.FindByUserID(ctx, entity.Page{Number: 1, Size: 2}, "u1")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "r1", second[0].ID)
}

func TestMemoryStore_UnknownAccountIsEmpty(t *testing.T) {
	m := NewMemoryStore()
	got, err := m.FindByUserID(context.Background(), entity.Page{}, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryStore_FarPageIsEmpty(t *testing.T) {
	m := NewMemoryStore(entity.StarRating{ID: "r1", UserID: "u1", ComicID: "c1", Rating: 4, CreatedAt: time.Now()})
	got, err := m.FindByUserID(context.Background(), entity.Page{Number: 922337203685477580, Size: 20}, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
