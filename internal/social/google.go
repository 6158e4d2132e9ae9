package social

import (
	"context"
	"errors"
	"time"
)

const defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleResolver reads the OpenID subject from Google's userinfo endpoint.
type GoogleResolver struct {
	client      userInfoClient
	userInfoURL string
}

func NewGoogleResolver(userInfoURL string, timeout time.Duration) *GoogleResolver {
	if userInfoURL == "" {
		userInfoURL = defaultGoogleUserInfoURL
	}
	return &GoogleResolver{client: newUserInfoClient(timeout), userInfoURL: userInfoURL}
}

func (r *GoogleResolver) Provider() Provider { return Google }

func (r *GoogleResolver) SocialID(ctx context.Context, accessToken string) (string, error) {
	var body struct {
		Sub string `json:"sub"`
	}
	if err := r.client.get(ctx, r.userInfoURL, accessToken, &body); err != nil {
		return "", err
	}
	if body.Sub == "" {
		return "", errors.New("google userinfo has no sub")
	}
	return body.Sub, nil
}

var _ Resolver = (*GoogleResolver)(nil)
