package store

import "errors"

var (
	// ErrNotFound is returned when no document matches the id or locator.
	ErrNotFound = errors.New("docfront: no document with the specified id or locator")

	// ErrConflict is returned when a document with the same id already exists.
	ErrConflict = errors.New("docfront: a document with this id already exists")

	// ErrMissingLocator is returned when a replace has no target locator and the input
	// is not a document carrying one.
	ErrMissingLocator = errors.New("docfront: locator cannot be blank unless the replacement is a document with its locator set")

	// ErrEmptyID is returned when a read or delete does not name a document id.
	ErrEmptyID = errors.New("docfront: the request did not specify a document id")

	// ErrInvalidID is returned when a document carries an id that is not a non-empty string.
	ErrInvalidID = errors.New("docfront: document id must be a non-empty string")

	// ErrBadQuery is returned when a read query cannot be executed.
	ErrBadQuery = errors.New("docfront: the query could not be executed as written")

	// ErrBadPageToken is returned when a continuation token cannot be decoded.
	ErrBadPageToken = errors.New("docfront: invalid continuation token")

	// ErrMissingEndpoint is returned when no service endpoint is configured.
	ErrMissingEndpoint = errors.New("docfront: the database endpoint is not specified")

	// ErrMissingCredential is returned when no access credential is configured.
	ErrMissingCredential = errors.New("docfront: the database credential is not specified")
)
