package auth

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"college/internal/model"
)

// DefaultTokenTTL is how long a session token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Claims represents JWT payload.
type Claims struct {
	UserID *int64 `json:"userId,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the identity decoded from a valid token.
type Principal struct {
	UserID int64
	Role   model.Role
}

// TokenService issues and validates HS256 session tokens.
type TokenService struct {
	key      []byte
	issuer   string
	audience []string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService builds a TokenService. audience is a comma-delimited list;
// issued tokens carry all of it and validation accepts any one of it.
func NewTokenService(signingKey, issuer, audience string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		key:      []byte(signingKey),
		issuer:   issuer,
		audience: SplitAudience(audience),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SplitAudience splits a comma-delimited audience list, dropping blanks.
func SplitAudience(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Issue signs a token for userID with role, valid for the configured TTL.
func (s *TokenService) Issue(userID int64, role model.Role) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID: &userID,
		Role:   role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings(s.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Validate checks signature, issuer, expiry and audience and returns the
// principal. Every failure is reported as ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}, opts...)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}
	if !s.audienceAccepted(claims.Audience) {
		return Principal{}, ErrInvalidToken
	}
	if claims.UserID == nil {
		return Principal{}, ErrInvalidToken
	}
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: *claims.UserID, Role: role}, nil
}

func (s *TokenService) audienceAccepted(got jwt.ClaimStrings) bool {
	if len(s.audience) == 0 {
		return true
	}
	for _, aud := range got {
		if slices.Contains(s.audience, aud) {
			return true
		}
	}
	return false
}
