package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "brdatabot/pkg/domerrors"
	"brdatabot/pkg/platform/httputil"
)

type contextKeyAdminUser struct{}

// AdminUsername retrieves the authenticated admin name from the context.
func AdminUsername(ctx context.Context) string {
	name, ok := ctx.Value(contextKeyAdminUser{}).(string)
	if !ok {
		return ""
	}
	return name
}

// BasicAuth guards the admin surface with HTTP Basic credentials. Both
// comparisons are constant time and always evaluated, so a wrong username
// costs the same as a wrong password.
func BasicAuth(username, password string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !ok || !userOK || !passOK {
				logger.WarnContext(r.Context(), "admin authentication rejected",
					"path", r.URL.Path,
				)
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid admin credentials"))
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyAdminUser{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
