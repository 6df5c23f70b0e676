package auth

import "fmt"

// ForbiddenError indicates the principal lacks a required role.
type ForbiddenError struct {
	Roles []string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("one of roles %v required", e.Roles)
}
