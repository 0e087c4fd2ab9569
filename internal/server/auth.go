package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/auri-app/auri/pkg/errors"
)

// MinSecretLength is the shortest accepted HMAC secret.
const MinSecretLength = 16

var errShortSecret = errors.New("jwt secret must be at least 16 characters")

// Authenticator verifies HS256 bearer tokens issued by the identity
// provider. The token's subject is the journal user ID.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for the shared secret.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if len(secret) < MinSecretLength {
		return nil, errShortSecret
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// Issue signs a token for userID valid for ttl. The API never issues
// tokens itself; this serves local development and tests.
func (a *Authenticator) Issue(userID string, ttl time.Duration) (string, error) {
	if err := apperrors.ValidateUserID(userID); err != nil {
		return "", err
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, err, "sign token")
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	if token == "" {
		return "", apperrors.New(apperrors.ErrCodeUnauthorized, "missing bearer token")
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", apperrors.Wrap(apperrors.ErrCodeSessionExpired, err, "token expired")
	case err != nil:
		return "", apperrors.Wrap(apperrors.ErrCodeUnauthorized, err, "invalid token")
	}

	if err := apperrors.ValidateUserID(claims.Subject); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeUnauthorized, err, "invalid token subject")
	}
	return claims.Subject, nil
}

type userKey struct{}

func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// userFrom returns the authenticated user. The auth middleware guarantees
// it is set on every /v1 request.
func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), s.cfg.User)))
			return
		}
		userID, err := s.auth.Verify(bearerToken(r))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
	})
}
