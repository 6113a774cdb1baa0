package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/worklane/timeledger-backend-go/internal/domain/user"
	"github.com/worklane/timeledger-backend-go/internal/handler/http/response"
)

func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "Missing or invalid token")
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.Unauthorized(w, "Missing or invalid token")
				return
			}
			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != "access" {
				response.Unauthorized(w, "Missing or invalid token")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// Identity is the caller as described by the access token.
type Identity struct {
	UserID     string
	Role       user.Role
	EmployeeID *string
}

// IdentityFromRequest reads the verified token claims. Only meaningful behind
// AuthRequired.
func IdentityFromRequest(r *http.Request) (Identity, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return Identity{}, false
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return Identity{}, false
	}
	role, ok := claims["role"].(string)
	if !ok {
		return Identity{}, false
	}

	identity := Identity{UserID: userID, Role: user.Role(role)}
	if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
		identity.EmployeeID = &employeeID
	}
	return identity, true
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

// Owns reports whether the identity may act on records of employeeID. Admins
// own everything.
func (i Identity) Owns(employeeID string) bool {
	if i.IsAdmin() {
		return true
	}
	return i.EmployeeID != nil && *i.EmployeeID == employeeID
}
