package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrNormalizerRequired is returned when a normalizer is not provided.
	ErrNormalizerRequired = errors.New("normalizer required")

	// ErrCollectionRequired is returned when the target collection name is empty.
	ErrCollectionRequired = errors.New("collection name required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrStrictAbort is returned when a malformed line stops a strict-mode load.
	ErrStrictAbort = errors.New("aborted on malformed input line")
)
