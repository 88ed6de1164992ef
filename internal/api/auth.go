package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/vulnark/internal/authz"
	"github.com/felixgeelhaar/vulnark/internal/session"
)

// AuthService covers /auth.
type AuthService struct {
	c *Client
}

// Auth returns the authentication endpoints.
func (c *Client) Auth() *AuthService {
	return &AuthService{c: c}
}

// RegisterRequest is a self-service registration.
type RegisterRequest struct {
	Username        string `json:"username"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the request before it is sent.
func (r RegisterRequest) Validate() error {
	switch {
	case r.Username == "":
		return fmt.Errorf("username is required")
	case r.Email == "":
		return fmt.Errorf("email is required")
	case len(r.Password) < 6:
		return fmt.Errorf("password must be at least 6 characters")
	case r.Password != r.ConfirmPassword:
		return fmt.Errorf("passwords do not match")
	}
	return nil
}

// Login exchanges credentials for a token and profile. It satisfies
// session.Authenticator.
func (s *AuthService) Login(ctx context.Context, creds session.Credentials) (session.LoginResult, error) {
	var res session.LoginResult
	body := map[string]string{"username": creds.Username, "password": creds.Password}
	if err := s.c.Post(ctx, "/auth/login", body, &res); err != nil {
		return session.LoginResult{}, err
	}
	if res.Token == "" {
		return session.LoginResult{}, s.c.fail(ctx, false, &Error{Kind: KindDecode, Method: http.MethodPost, Path: "/auth/login", Message: "login response has no token"})
	}
	return res, nil
}

// Register creates an account. It does not log in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) error {
	if err := req.Validate(); err != nil {
		return &Error{Kind: KindValidation, Method: http.MethodPost, Path: "/auth/register", Message: err.Error(), Err: err}
	}
	return s.c.Post(ctx, "/auth/register", req, nil)
}

// CurrentUser fetches the profile belonging to token.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (authz.UserProfile, error) {
	var user authz.UserProfile
	err := s.c.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/me", Token: token}, &user)
	return user, err
}

// Logout tells the server the token is no longer used.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/logout", Token: token, Quiet: true}, nil)
}
