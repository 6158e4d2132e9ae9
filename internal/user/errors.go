package user

import (
	"errors"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/social"
)

var (
	ErrAlreadyExists  = errors.New("user id already exists")
	ErrNotFound       = errors.New("user not found")
	ErrSignInMismatch = errors.New("sign-in data does not match")
	// ErrUnsupportedProvider is shared with the social package so a failed
	// provider parse and a failed credential parse compare equal.
	ErrUnsupportedProvider = social.ErrUnsupportedProvider
	ErrProviderFailure     = errors.New("identity provider failure")
	ErrInvalidInput        = errors.New("invalid input")
)
