package models

// User identifies the owner of ledger entities.
//
// Users are managed outside the ledger. The record exists so the access
// layer can mint and validate tokens carrying the owner ID.
type User struct {
	// ID is the opaque owner identifier stamped on every entity.
	ID string

	// Email is informational and travels in the token claims.
	Email string
}
