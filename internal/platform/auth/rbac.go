package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Clinic user roles.
const (
	RoleAdmin        string = "admin"
	RolePatient      string = "patient"
	RoleDoctor       string = "doctor"
	RoleNurse        string = "nurse"
	RoleSurgeon      string = "surgeon"
	RoleTherapist    string = "therapist"
	RoleReceptionist string = "receptionist"
)

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles. Admin passes every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range userRoles {
					if has == required || has == RoleAdmin {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// HasRole reports whether the granted roles include the required role.
// Admin is treated as holding every role.
func HasRole(granted []string, required string) bool {
	for _, r := range granted {
		if r == required || r == RoleAdmin {
			return true
		}
	}
	return false
}
