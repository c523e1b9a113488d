package auth

import (
	"net/http"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/frahmantamala/donation-management/pkg/logger"
)

// RBACAuthorization guards routes behind AuthMiddleware. Rejections carry a
// generic message; the missing permission is only logged.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(base *transport.BaseHandler) *RBACAuthorization {
	if base == nil {
		base = transport.NewBaseHandler(nil)
	}
	return &RBACAuthorization{BaseHandler: base}
}

// RequirePermission admits users holding any of permissions, or the wildcard.
func (ra *RBACAuthorization) RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return ra.require(func(u *User) bool { return u.HasPermission(permissions...) }, "permissions", permissions)
}

// RequireRole admits users holding the named role.
func (ra *RBACAuthorization) RequireRole(role string) func(http.Handler) http.Handler {
	return ra.require(func(u *User) bool { return u.HasRole(role) }, "role", role)
}

func (ra *RBACAuthorization) require(allowed func(*User) bool, key string, value interface{}) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				ra.WriteError(w, internal.ErrUnauthenticated)
				return
			}
			if !allowed(user) {
				logger.From(r.Context()).Warn("access denied", "user_id", user.ID, "required_"+key, value)
				ra.WriteError(w, internal.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
