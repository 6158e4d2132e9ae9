package social

import (
	"context"
	"errors"
	"strconv"
	"time"
)

const defaultKakaoUserURL = "https://kapi.kakao.com/v2/user/me"

// KakaoResolver reads the member id from Kakao's user API.
type KakaoResolver struct {
	client  userInfoClient
	userURL string
}

// NewKakaoResolver builds a resolver. userURL may be empty for the public API.
func NewKakaoResolver(userURL string, timeout time.Duration) *KakaoResolver {
	if userURL == "" {
		userURL = defaultKakaoUserURL
	}
	return &KakaoResolver{client: newUserInfoClient(timeout), userURL: userURL}
}

func (r *KakaoResolver) Provider() Provider { return Kakao }

func (r *KakaoResolver) SocialID(ctx context.Context, accessToken string) (string, error) {
	var body struct {
		ID int64 `json:"id"`
	}
	if err := r.client.get(ctx, r.userURL, accessToken, &body); err != nil {
		return "", err
	}
	if body.ID == 0 {
		return "", errors.New("kakao response has no id")
	}
	return strconv.FormatInt(body.ID, 10), nil
}

var _ Resolver = (*KakaoResolver)(nil)
