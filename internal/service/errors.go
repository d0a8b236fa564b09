package service

import "errors"

var (
	// ErrNotFound a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument the request is structurally valid but semantically wrong
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClaimLost a conditional status transition matched zero rows: another
	// worker already claimed or finished the unit. Callers skip, not fail.
	ErrClaimLost = errors.New("claim lost")
)
