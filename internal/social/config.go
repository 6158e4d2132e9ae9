package social

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects which resolvers are registered at startup.
type Config struct {
	Enabled []Provider
	Timeout time.Duration
	// Endpoint overrides, mostly for staging and tests.
	KakaoUserURL      string
	NaverUserURL      string
	GoogleUserInfoURL string
}

// ConfigFromEnv reads SOCIAL_PROVIDERS (comma separated, default all),
// SOCIAL_HTTP_TIMEOUT and the *_USER_URL overrides.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Enabled:           Providers,
		Timeout:           defaultTimeout,
		KakaoUserURL:      os.Getenv("KAKAO_USER_URL"),
		NaverUserURL:      os.Getenv("NAVER_USER_URL"),
		GoogleUserInfoURL: os.Getenv("GOOGLE_USERINFO_URL"),
	}
	if v := os.Getenv("SOCIAL_PROVIDERS"); v != "" {
		cfg.Enabled = nil
		for _, tag := range strings.Split(v, ",") {
			if strings.TrimSpace(tag) == "" {
				continue
			}
			p, err := ParseProvider(tag)
			if err != nil {
				return Config{}, fmt.Errorf("SOCIAL_PROVIDERS: %w", err)
			}
			cfg.Enabled = append(cfg.Enabled, p)
		}
	}
	if v := os.Getenv("SOCIAL_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SOCIAL_HTTP_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// NewRegistryFromConfig builds a Registry holding a resolver for every
// enabled provider.
func NewRegistryFromConfig(cfg Config) *Registry {
	var list []Resolver
	for _, p := range cfg.Enabled {
		switch p {
		case Kakao:
			list = append(list, NewKakaoResolver(cfg.KakaoUserURL, cfg.Timeout))
		case Naver:
			list = append(list, NewNaverResolver(cfg.NaverUserURL, cfg.Timeout))
		case Google:
			list = append(list, NewGoogleResolver(cfg.GoogleUserInfoURL, cfg.Timeout))
		}
	}
	return NewRegistry(list...)
}
