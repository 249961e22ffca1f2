// internal/auth/tokens.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edupath-ksa/internal/common/config"
	apperrors "edupath-ksa/internal/common/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// TokenKind separates short-lived access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims are carried by every token the API issues.
type Claims struct {
	UserID int64     `json:"uid"`
	Role   Role      `json:"role"`
	Kind   TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is returned by login, registration and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RevocationStore remembers logged-out token ids until they would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret      []byte
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	revocations RevocationStore
	now         func() time.Time
}

func NewTokenManager(cfg config.AuthConfig, revocations RevocationStore) *TokenManager {
	return &TokenManager{
		secret:      []byte(cfg.JWT.Secret),
		issuer:      cfg.JWT.Issuer,
		accessTTL:   config.GetSeconds(cfg.JWT.AccessTTL),
		refreshTTL:  config.GetSeconds(cfg.JWT.RefreshTTL),
		revocations: revocations,
		now:         time.Now,
	}
}

// Issue signs a fresh access/refresh pair for a user.
func (m *TokenManager) Issue(userID int64, role Role) (TokenPair, error) {
	access, err := m.sign(userID, role, KindAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(userID, role, KindRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(m.accessTTL / time.Second),
	}, nil
}

func (m *TokenManager) sign(userID int64, role Role, kind TokenKind, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Parse verifies signature, issuer, expiry, kind and revocation.
func (m *TokenManager) Parse(ctx context.Context, token string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorizedError("token expired")
		}
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}

	if claims.Kind != kind {
		return nil, apperrors.NewUnauthorizedError(fmt.Sprintf("expected %s token", kind))
	}

	if m.revocations != nil {
		revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.NewCacheFailedError(err)
		}
		if revoked {
			return nil, apperrors.NewUnauthorizedError("token revoked")
		}
	}
	return claims, nil
}

// Revoke blacklists the token until its natural expiry.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.revocations == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.revocations.Revoke(ctx, claims.ID, ttl)
}

// RedisRevocationStore keeps revoked token ids under token:revoked:<jti>.
type RedisRevocationStore struct {
	client redis.Cmdable
}

func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func revokedKey(tokenID string) string {
	return "token:revoked:" + tokenID
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
