package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/estatepro/leadsync/internal/domain"
	"github.com/estatepro/leadsync/internal/session"
)

// TokenManager inspects session tokens issued by the collaborator. With a
// secret configured the HS256 signature is verified; without one the claims
// are read as-is and only expiry is enforced.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// Claims describes the JWT payload the collaborator issues.
type Claims struct {
	UserID string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for the actor. Used by local tooling and tests.
func (tm *TokenManager) GenerateToken(actor session.Actor) (string, time.Time, error) {
	expiresAt := tm.now().Add(tm.ttl)
	claims := &Claims{
		UserID: actor.ID,
		Name:   actor.Name,
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(tm.now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	if len(tm.secret) == 0 {
		return tm.parseUnverified(tokenStr)
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (tm *TokenManager) parseUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(tm.now()) {
		return nil, jwt.ErrTokenExpired
	}
	return claims, nil
}

// Inspect implements session.TokenInspector.
func (tm *TokenManager) Inspect(token string) (session.Actor, error) {
	claims, err := tm.ParseToken(strings.TrimSpace(token))
	if err != nil {
		return session.Actor{}, err
	}
	id := claims.UserID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return session.Actor{}, errors.New("token carries no subject")
	}
	return session.Actor{
		ID:   id,
		Name: claims.Name,
		Role: domain.ParseStaffRole(claims.Role),
	}, nil
}
