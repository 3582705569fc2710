package utils

import "errors"

var ErrForbiddenRole = errors.New("user is not authorized")

// AuthorizeRole reports whether userRole is one of allowedRoles.
func AuthorizeRole(userRole string, allowedRoles ...string) (bool, error) {
	for _, allowedRole := range allowedRoles {
		if allowedRole == userRole {
			return true, nil
		}
	}

	return false, ErrForbiddenRole
}
