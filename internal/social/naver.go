package social

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultNaverUserURL = "https://openapi.naver.com/v1/nid/me"

// NaverResolver reads the member id from Naver's profile API.
type NaverResolver struct {
	client  userInfoClient
	userURL string
}

func NewNaverResolver(userURL string, timeout time.Duration) *NaverResolver {
	if userURL == "" {
		userURL = defaultNaverUserURL
	}
	return &NaverResolver{client: newUserInfoClient(timeout), userURL: userURL}
}

func (r *NaverResolver) Provider() Provider { return Naver }

func (r *NaverResolver) SocialID(ctx context.Context, accessToken string) (string, error) {
	var body struct {
		ResultCode string `json:"resultcode"`
		Message    string `json:"message"`
		Response   struct {
			ID string `json:"id"`
		} `json:"response"`
	}
	if err := r.client.get(ctx, r.userURL, accessToken, &body); err != nil {
		return "", err
	}
	// "00" is Naver's success code
	if body.ResultCode != "00" {
		return "", fmt.Errorf("naver result %s: %s", body.ResultCode, body.Message)
	}
	if body.Response.ID == "" {
		return "", errors.New("naver response has no id")
	}
	return body.Response.ID, nil
}

var _ Resolver = (*NaverResolver)(nil)
