package middleware

import (
	"net/http"

	"github.com/Toite-app/api-sub001/api/responses"
	"github.com/Toite-app/api-sub001/pkg/enums"
	pkgerrors "github.com/Toite-app/api-sub001/pkg/errors"
	"github.com/Toite-app/api-sub001/pkg/logger"
)

// RequireRoles rejects requests whose authenticated worker holds none of the
// allowed roles.
func RequireRoles(logg *logger.Logger, roles ...enums.WorkerRole) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[string(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
