package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the bearer token and public user id handed out on login.
type LoginResult struct {
	Token    string `json:"token"`
	UniqueID string `json:"unique_id"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: LoginPath, Body: req})
	if err != nil {
		return nil, err
	}
	var result LoginResult
	if err := resp.Decode(&result); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if strings.TrimSpace(result.Token) == "" {
		return nil, fmt.Errorf("login response has no token")
	}
	return &result, nil
}
