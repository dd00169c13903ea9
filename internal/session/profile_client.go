package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spec-kit/hospital-auth/internal/domain"
)

// ProfileClient looks up profiles over HTTP against the /auth/me endpoint.
type ProfileClient struct {
	baseURL string
	client  *http.Client
}

// NewProfileClient builds a client for the given service base URL.
func NewProfileClient(baseURL string) *ProfileClient {
	return &ProfileClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type meResponse struct {
	Data struct {
		User struct {
			Name  string      `json:"name"`
			Email string      `json:"email"`
			Role  domain.Role `json:"role"`
		} `json:"user"`
	} `json:"data"`
}

// Me performs a single round trip with the token as bearer credential.
func (p *ProfileClient) Me(ctx context.Context, token string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile lookup failed: status %d", resp.StatusCode)
	}

	var body meResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	user := body.Data.User
	if user.Email == "" || !user.Role.Valid() {
		return nil, errors.New("malformed profile payload")
	}
	return &UserProfile{Role: user.Role, Email: user.Email, Name: user.Name}, nil
}
