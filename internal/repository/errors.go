// Package repository provides data access for the validator backend.
// Each table has its own repository bound to the shared *sql.DB; none
// of the hot paths build raw query strings from caller input.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.  Callers use
// errors.Is to distinguish "absent" from a store failure, because the
// two produce different protocol replies.
var ErrNotFound = errors.New("repository: not found")
