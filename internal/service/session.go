// Package service provides application business logic (sessions, posts, users, chats, uploads).
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"facegram/internal/cache"
	"facegram/internal/models"
	"facegram/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	msgMissingToken   = "Unauthorized: Missing token"
	msgUserNotFound   = "Unauthorized: User not found"
	msgTokenMalformed = "Unauthorized: Error verifying token"
)

// SessionClaims is the JWT payload carried by the token cookie.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionResolver turns a session token into the authenticated user.
type SessionResolver struct {
	users  repository.UserRepository
	store  cache.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionResolver returns a resolver signing and verifying tokens with secret.
func NewSessionResolver(users repository.UserRepository, store cache.Store, secret string, ttl time.Duration) *SessionResolver {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionResolver{
		users:  users,
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the lifetime given to issued tokens.
func (r *SessionResolver) TTL() time.Duration {
	return r.ttl
}

// IssueToken signs a session token for user.
func (r *SessionResolver) IssueToken(user *models.User) (string, error) {
	now := r.now()
	claims := SessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}

// Resolve verifies token and returns its user, reading through the
// user:<email> cache entry.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, models.NewUnauthorizedError(msgMissingToken)
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || !parsed.Valid || claims.Email == "" {
		return nil, models.NewUnauthorizedError(msgTokenMalformed)
	}

	user, err := cache.Aside(ctx, r.store, cache.UserKey(claims.Email), cache.UserTTL, func(ctx context.Context) (*models.User, error) {
		u, err := r.users.GetByEmail(ctx, claims.Email)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, models.NewUnauthorizedError(msgUserNotFound)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Forget drops the cached session user so the next request reloads it.
func (r *SessionResolver) Forget(ctx context.Context, email string) {
	cache.Invalidate(ctx, r.store, cache.UserKey(email))
}
