// Package common defines the error taxonomy and shared constants used across
// the ogpblog server, its repositories and the admin CLI. Callers should use
// errors.Is / errors.As (or KindOf) to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Post-specific errors.
	ErrorDuplicateTitle = errors.New("post with the same title already exists")
	ErrorInvalidID      = errors.New("invalid id")
)
