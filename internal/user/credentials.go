package user

import (
	"strings"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/social"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// Credentials is what a caller presents to create or sign in to an account.
// The set of variants is closed: LocalCredentials and SocialCredentials.
type Credentials interface {
	origin() string
}

// LocalCredentials authenticate with the application's own id and password.
type LocalCredentials struct {
	UserID   string
	Password string
}

func (LocalCredentials) origin() string { return entity.ProviderLocal }

// SocialCredentials carry a provider access token; the external id is
// whatever the provider reports as the subject.
type SocialCredentials struct {
	Provider    social.Provider
	AccessToken string
}

func (c SocialCredentials) origin() string { return string(c.Provider) }

// ParseCredentials builds the variant named by tag. "COCONUT" and "LOCAL"
// select local credentials; anything else must be a known social provider.
func ParseCredentials(tag, userID, password, accessToken string) (Credentials, error) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case entity.ProviderLocal, "LOCAL":
		return LocalCredentials{UserID: userID, Password: password}, nil
	}
	p, err := social.ParseProvider(tag)
	if err != nil {
		return nil, err
	}
	return SocialCredentials{Provider: p, AccessToken: accessToken}, nil
}

func originOf(c Credentials) string {
	if c == nil {
		return "UNKNOWN"
	}
	return c.origin()
}
