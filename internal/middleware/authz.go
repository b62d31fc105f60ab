package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/httpx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/repository"
)

// Authorizer checks permissions against the RBAC store on every request.
// Policies are loaded per check; nothing is cached across requests.
type Authorizer struct {
	uow repository.UnitOfWork
	log logrus.FieldLogger
}

func NewAuthorizer(uow repository.UnitOfWork, log logrus.FieldLogger) *Authorizer {
	return &Authorizer{uow: uow, log: log}
}

// Require rejects requests whose actor does not hold permission.
func (a *Authorizer) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.ActorFromContext(r.Context())
			if !ok {
				unauthenticated(w, "authentication required")
				return
			}

			var allowed bool
			err := a.uow.Read(r.Context(), func(ctx context.Context, s repository.Stores) error {
				var err error
				allowed, err = s.RBAC.UserHasPermission(ctx, actor.ID, permission)
				return err
			})
			if err != nil {
				a.log.WithError(err).WithFields(logrus.Fields{
					"actor_id":   actor.ID,
					"permission": permission,
				}).Error("authorization check failed")
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "authorization check failed")
				return
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission "+permission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
