package repo

import "testing"

func TestRatingRepo_ImplementsStore(t *testing.T) {
	var _ Store = (*RatingRepo)(nil)
}
