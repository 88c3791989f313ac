package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"apartadmin/internal/session"
)

// AuthClient logs admins in. It is the one client that runs without a
// session, since its whole job is to mint one.
type AuthClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAuthClient constructs the client; baseURL points at the backend root.
func NewAuthClient(baseURL, apiKey string) *AuthClient {
	return &AuthClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges credentials for a bearer token.
func (c *AuthClient) Login(ctx context.Context, username, password string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/auth/login", c.baseURL)
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", decodeError(resp)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return payload.Token, nil
}

// NewSession wraps a token issued by Login into a live session carrying
// the static API key.
func (c *AuthClient) NewSession(token string) *session.Session {
	return session.New(token, c.apiKey)
}
