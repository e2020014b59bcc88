// Package domain holds errors shared across the domain packages.
package domain

import "errors"

// ErrNotFound reports a lookup of an entity that does not exist. Services
// wrap it with the entity kind and identifier.
var ErrNotFound = errors.New("not found")
