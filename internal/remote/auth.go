package remote

import (
	"context"
	"errors"
	"net/url"
)

const (
	tokenPath    = "/token"
	registerPath = "/register/"
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// Authenticate exchanges a username and password for a bearer token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var token Token
	if err := c.PostForm(ctx, tokenPath, form, &token); err != nil {
		return nil, err
	}

	if token.AccessToken == "" {
		return nil, errors.New("remote returned an empty access token")
	}

	// Older deployments omit the username; the submitted one is the identity then.
	if token.Username == "" {
		token.Username = username
	}

	return &token, nil
}

// Register creates a user account and returns the remote confirmation message.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.Post(ctx, registerPath, body, &resp); err != nil {
		return "", err
	}

	return resp.Message, nil
}
