package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/jiahe-fees/internal/auth"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
)

type contextKey string

const contextKeySession = contextKey("session")

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	FromToken(token string) (*auth.Session, error)
}

// Authenticate requires a valid "Authorization: Bearer" token and stores the
// resolved session in the request context.
func Authenticate(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, err.Error())
				return
			}
			sess, err := sessions.FromToken(token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					respond.Error(w, http.StatusUnauthorized, "invalid token")
					return
				}
				respond.Error(w, http.StatusInternalServerError, "failed to resolve session")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess *auth.Session) context.Context {
	return context.WithValue(ctx, contextKeySession, sess)
}

// SessionFrom returns the session stored by Authenticate, or nil.
func SessionFrom(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(contextKeySession).(*auth.Session)
	return sess
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("authorization header must be a bearer token")
	}
	return strings.TrimSpace(token), nil
}
