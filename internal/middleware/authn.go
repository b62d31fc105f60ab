// Package middleware holds the HTTP authentication and authorization layers
// of the admin API.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/httpx"
)

// Channel tags every request as coming from the HTTP surface.
func Channel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithChannel(r.Context(), auth.ChannelHTTP)))
	})
}

// NewAuthnMiddleware verifies the HS256 bearer token on each request and
// stores the actor it names on the request context.
func NewAuthnMiddleware(secret string, log logrus.FieldLogger) (func(http.Handler) http.Handler, error) {
	if secret == "" {
		return nil, errors.New("authn middleware requires a token secret")
	}
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthenticated(w, "missing bearer token")
				return
			}

			actor, err := auth.ParseToken(key, raw)
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Debug("rejected bearer token")
				unauthenticated(w, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthenticated(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="timetableapi"`)
	httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
}
