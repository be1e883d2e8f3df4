package store

import "errors"

var (
	// ErrDuplicateDocument reports an ingest of a document ID that is
	// already present. Delete the document first to re-ingest it.
	ErrDuplicateDocument = errors.New("document already ingested")

	// ErrNotFound reports an operation on a document ID that is not present.
	ErrNotFound = errors.New("document not found")
)
