package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleMember     = "member"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

// Authorizer checks the caller's role against path and method policies.
type Authorizer struct {
	enforcer *casbin.Enforcer
	logger   *slog.Logger
}

// NewAuthorizer loads the default policy: members read, admins and
// superadmins write.
func NewAuthorizer(logger *slog.Logger) (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	policies := [][]string{
		{RoleMember, "/api/*", http.MethodGet},
		{RoleAdmin, "/api/*", "*"},
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}
	groupings := [][]string{
		{RoleAdmin, RoleMember},
		{RoleSuperadmin, RoleAdmin},
	}
	for _, g := range groupings {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("failed to add role %v: %w", g, err)
		}
	}

	return &Authorizer{enforcer: e, logger: logger}, nil
}

// Allowed reports whether role may perform method on path.
func (a *Authorizer) Allowed(role, path, method string) (bool, error) {
	return a.enforcer.Enforce(role, path, method)
}

// Authorize must run after Authenticate.
func (a *Authorizer) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, err := GetUserRoleFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ok, err := a.Allowed(role, r.URL.Path, r.Method)
		if err != nil {
			a.logger.ErrorContext(r.Context(), "authorization check failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "authorization check failed")
			return
		}
		if !ok {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
