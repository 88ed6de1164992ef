package api

import (
	"context"

	"github.com/felixgeelhaar/vulnark/internal/authz"
)

// User is a managed account as returned by /users.
type User struct {
	authz.UserProfile
	AvatarURL     string `json:"avatarUrl,omitempty"`
	Notes         string `json:"notes,omitempty"`
	LastLoginTime string `json:"lastLoginTime,omitempty"`
	CreatedTime   string `json:"createdTime,omitempty"`
	UpdatedTime   string `json:"updatedTime,omitempty"`
}

// UserRequest creates or updates an account.
type UserRequest struct {
	Username   string           `json:"username"`
	Email      string           `json:"email"`
	FullName   string           `json:"fullName,omitempty"`
	Role       authz.Role       `json:"role"`
	Status     authz.UserStatus `json:"status,omitempty"`
	Department string           `json:"department,omitempty"`
	Position   string           `json:"position,omitempty"`
	Phone      string           `json:"phone,omitempty"`
	Password   string           `json:"password,omitempty"`
}

// UserFilter narrows a user listing.
type UserFilter struct {
	PageParams
	Username   string
	Email      string
	FullName   string
	Role       string
	Status     string
	Department string
	Position   string
	Keyword    string
}

// UserStats is returned by /users/stats. Its shape is server defined.
type UserStats map[string]any

// UserService covers /users.
type UserService struct {
	c *Client
}

// Users returns the user management endpoints.
func (c *Client) Users() *UserService {
	return &UserService{c: c}
}

func (s *UserService) All(ctx context.Context) ([]User, error) {
	return getAs[[]User](ctx, s.c, "/users/all", nil)
}

func (s *UserService) List(ctx context.Context, f UserFilter) (Page[User], error) {
	q := f.PageParams.apply(NewQuery()).
		String("username", f.Username).
		String("email", f.Email).
		String("fullName", f.FullName).
		String("role", f.Role).
		String("status", f.Status).
		String("department", f.Department).
		String("position", f.Position).
		String("keyword", f.Keyword)
	return getAs[Page[User]](ctx, s.c, "/users", q.Values())
}

func (s *UserService) Get(ctx context.Context, userID int64) (User, error) {
	return getAs[User](ctx, s.c, "/users/"+id(userID), nil)
}

func (s *UserService) Create(ctx context.Context, req UserRequest) (User, error) {
	return postAs[User](ctx, s.c, "/users", req)
}

func (s *UserService) Update(ctx context.Context, userID int64, req UserRequest) (User, error) {
	return putAs[User](ctx, s.c, "/users/"+id(userID), req)
}

func (s *UserService) Delete(ctx context.Context, userID int64) error {
	return s.c.Delete(ctx, "/users/"+id(userID), nil)
}

func (s *UserService) UpdateStatus(ctx context.Context, userID int64, status authz.UserStatus) (User, error) {
	return putAs[User](ctx, s.c, "/users/"+id(userID)+"/status", map[string]authz.UserStatus{"status": status})
}

func (s *UserService) ResetPassword(ctx context.Context, userID int64, password string) (User, error) {
	return putAs[User](ctx, s.c, "/users/"+id(userID)+"/password", map[string]string{"password": password})
}

func (s *UserService) ByRole(ctx context.Context, role authz.Role) ([]User, error) {
	return getAs[[]User](ctx, s.c, "/users/role/"+pathEscape(string(role)), nil)
}

func (s *UserService) Stats(ctx context.Context) (UserStats, error) {
	return getAs[UserStats](ctx, s.c, "/users/stats", nil)
}
