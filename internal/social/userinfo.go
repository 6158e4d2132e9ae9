package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const defaultTimeout = 5 * time.Second

var errEmptyAccessToken = errors.New("empty access token")

// userInfoClient performs bearer-authenticated GETs against a provider's
// user-info endpoint.
type userInfoClient struct {
	http *http.Client
}

func newUserInfoClient(timeout time.Duration) userInfoClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return userInfoClient{http: &http.Client{Timeout: timeout}}
}

// get fetches endpoint with accessToken as bearer and decodes the JSON body
// into dst.
func (c userInfoClient) get(ctx context.Context, endpoint, accessToken string, dst any) error {
	if accessToken == "" {
		return errEmptyAccessToken
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	// oauth2.NewClient keeps the base transport but not the timeout
	client.Timeout = c.http.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
