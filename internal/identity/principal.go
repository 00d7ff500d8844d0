package identity

import (
	"context"
	"net/http"
	"strings"
)

type Role string

const (
	RolePatient               Role = "patient"
	RoleDiagnosticCenterAdmin Role = "diagnostic_center_admin"
	RoleAdmin                 Role = "admin"
	RoleSuperAdmin            Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDiagnosticCenterAdmin, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Elevated reports whether the role may act on appointments it does not own.
func (r Role) Elevated() bool {
	return r.Valid() && r != RolePatient
}

// Principal is the authenticated caller. CenterID is only set for
// diagnostic_center_admin and scopes that admin to one center.
type Principal struct {
	ID       string
	Email    string
	Name     string
	Phone    string
	Role     Role
	CenterID string
}

// CanAccessCenter reports whether an elevated principal covers centerID.
func (p *Principal) CanAccessCenter(centerID string) bool {
	switch p.Role {
	case RoleAdmin, RoleSuperAdmin:
		return true
	case RoleDiagnosticCenterAdmin:
		return p.CenterID != "" && p.CenterID == centerID
	}
	return false
}

// Provider supplies the principal for the current call.
type Provider interface {
	CurrentPrincipal(ctx context.Context) (*Principal, bool)
}

type contextKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// ContextProvider reads the principal placed on the context by Middleware.
type ContextProvider struct{}

func (ContextProvider) CurrentPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// Headers set by the authenticating gateway in front of this service.
const (
	HeaderUserID   = "X-User-ID"
	HeaderRole     = "X-User-Role"
	HeaderEmail    = "X-User-Email"
	HeaderName     = "X-User-Name"
	HeaderPhone    = "X-User-Phone"
	HeaderCenterID = "X-Center-ID"
)

// FromHeaders builds a principal from trusted gateway headers. A missing user
// id or an unknown role yields no principal.
func FromHeaders(h http.Header) (*Principal, bool) {
	id := strings.TrimSpace(h.Get(HeaderUserID))
	if id == "" {
		return nil, false
	}

	role := Role(strings.TrimSpace(h.Get(HeaderRole)))
	if role == "" {
		role = RolePatient
	}
	if !role.Valid() {
		return nil, false
	}

	p := &Principal{
		ID:    id,
		Email: h.Get(HeaderEmail),
		Name:  h.Get(HeaderName),
		Phone: h.Get(HeaderPhone),
		Role:  role,
	}
	if role == RoleDiagnosticCenterAdmin {
		p.CenterID = strings.TrimSpace(h.Get(HeaderCenterID))
	}
	return p, true
}

// Middleware attaches the gateway principal, if any, to the request context.
// It never rejects; handlers decide whether a principal is required.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := FromHeaders(r.Header); ok {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}
