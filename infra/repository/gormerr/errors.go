// Package gormerr translates GORM errors into domain errors. It sits
// below the repositories and the unit-of-work so both can use it
// without importing each other.
package gormerr

import (
	"errors"

	"gorm.io/gorm"
)

// Map converts a GORM error to the caller's domain error. The error
// chain is traversed because GORM wraps driver errors.
func Map(err error, notFound error) error {
	if err == nil {
		return nil
	}
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if errors.Is(cur, gorm.ErrRecordNotFound) {
			return notFound
		}
	}
	return err
}
