package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(userID int64) (*User, error)
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetPasswordForEmail(email string) (passwordHash string, userID string, err error)
	GetUserWithPermissions(userID int64) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID string) (token string, err error)
	GenerateRefreshToken(userID string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// User is the authenticated principal carried through request context.
type User struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasPermission(PermAdmin) || u.HasPermission(PermManageCatalog)
}

// Permissions used by the catalog admin surface.
const (
	PermAdmin         = "admin"
	PermManageCatalog = "manage_catalog"
)

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type ctxKey string

const ContextUserKey ctxKey = "authUser"

// UserFromContext returns the authenticated user placed by AuthMiddleware.
func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ContextUserKey).(*User)
	return user, ok
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}
