package user

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// maxPasswordBytes is bcrypt's input limit. It counts bytes, not characters.
const maxPasswordBytes = 72

// PasswordHasher abstracts the one-way password scheme.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// validatePassword checks pw against the stored hash. Accounts without a hash
// never match.
func validatePassword(h PasswordHasher, u *entity.User, pw string) error {
	if u.Password == nil || *u.Password == "" {
		return ErrSignInMismatch
	}
	if !h.Verify(*u.Password, pw) {
		return ErrSignInMismatch
	}
	return nil
}
