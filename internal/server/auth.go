package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

type contextKey string

const userEmailKey contextKey = "userEmail"

// TokenService issues and validates the HS256 bearer tokens that
// identify users by email.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service with the given signing secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: 24 * time.Hour}
}

// GenerateToken signs a token whose subject is the user's email.
func (s *TokenService) GenerateToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", eris.Wrap(err, "auth: sign token")
	}
	return signed, nil
}

// ValidateToken parses a token and returns the subject email.
func (s *TokenService) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", eris.Wrap(err, "auth: parse token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", eris.New("auth: invalid token")
	}
	return claims.Subject, nil
}

// Middleware validates the Authorization bearer token and stores the
// caller's email on the request context.
func (s *TokenService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		email, err := s.ValidateToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userEmailKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userEmail returns the authenticated caller's email, or "" when the
// request skipped the auth middleware.
func userEmail(r *http.Request) string {
	email, _ := r.Context().Value(userEmailKey).(string)
	return email
}
