package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ecodepin/ecodepin-api/apperrors"
)

// IdentityProfile is the profile the OAuth provider returns for a session id.
type IdentityProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type IdentityProviderInterface interface {
	FetchSessionData(ctx context.Context, sessionID string) (*IdentityProfile, error)
}

type IdentityProviderClient struct {
	httpClient *http.Client
	url        string
}

func NewIdentityProviderClient(url string, timeout time.Duration) IdentityProviderInterface {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IdentityProviderClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

// FetchSessionData exchanges an external session id for the user's profile.
// Provider 4xx responses become Unauthorized; transport failures and 5xx
// responses become Internal.
func (c *IdentityProviderClient) FetchSessionData(ctx context.Context, sessionID string) (*IdentityProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperrors.Internal("Authentication failed", fmt.Errorf("failed to build identity request: %w", err))
	}
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Internal("Authentication failed", fmt.Errorf("identity provider unreachable: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		io.Copy(io.Discard, resp.Body)
		return nil, apperrors.Unauthorized("Invalid session_id")
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, apperrors.Internal("Authentication failed", fmt.Errorf("identity provider returned %d", resp.StatusCode))
	}

	var profile IdentityProfile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&profile); err != nil {
		return nil, apperrors.Unauthorized("Invalid session_id")
	}
	return &profile, nil
}
