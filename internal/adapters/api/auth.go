package api

import (
	"context"
	"fmt"
)

// The backend signs users in over a two-step exchange: credentials first,
// then the emailed verification code. The token that comes back is an
// opaque bearer credential; nothing here inspects it.

// LoginStep1 submits the user's credentials and triggers the verification
// step.
func (c *Client) LoginStep1(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.post(ctx, "/auth/login-step1", body, false, nil)
}

// LoginStep2 exchanges the verification code for an access token.
func (c *Client) LoginStep2(ctx context.Context, email, code string) (string, error) {
	body := map[string]string{"email": email, "code": code}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.post(ctx, "/auth/login-step2", body, false, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login succeeded but no access token returned")
	}
	return out.AccessToken, nil
}
