package domain

import "errors"

var (
	// ErrCacheMiss is returned when a snapshot is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrListingNotFound is returned when no listing matches the given id
	ErrListingNotFound = errors.New("listing not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNothingToUpdate is returned when a mapping carries no fields to apply
	ErrNothingToUpdate = errors.New("mapping has nothing to update")

	// ErrSourceFailure is returned when a provider source fetch fails
	ErrSourceFailure = errors.New("provider source fetch failed")

	// ErrStoreFailure is returned when the listing store is unavailable
	ErrStoreFailure = errors.New("listing store operation failed")
)
