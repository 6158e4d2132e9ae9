// Package social resolves provider access tokens to stable subject ids.
// Resolvers only talk to the provider; they never create or look up accounts.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider tags a social identity provider.
type Provider string

const (
	Kakao  Provider = "KAKAO"
	Naver  Provider = "NAVER"
	Google Provider = "GOOGLE"
)

// Providers lists every provider the service knows how to talk to.
var Providers = []Provider{Kakao, Naver, Google}

var (
	// ErrUnsupportedProvider means the tag in the request names no known provider.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrResolverNotRegistered means the provider is known but this process
	// was started without a resolver for it. That is a deployment mistake.
	ErrResolverNotRegistered = errors.New("no resolver registered for provider")
)

// ParseProvider maps a request tag to a Provider, case-insensitively.
func ParseProvider(tag string) (Provider, error) {
	p := Provider(strings.ToUpper(strings.TrimSpace(tag)))
	if !p.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, tag)
	}
	return p, nil
}

// Known reports whether p is one of Providers.
func (p Provider) Known() bool {
	for _, k := range Providers {
		if p == k {
			return true
		}
	}
	return false
}

// Resolver exchanges a provider access token for the provider's subject id.
type Resolver interface {
	Provider() Provider
	SocialID(ctx context.Context, accessToken string) (string, error)
}
