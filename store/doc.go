// Package store provides a DynamoDB-backed document store with a uniform result envelope.
//
// Callers submit documents in any shape accepted by the document package (raw JSON or
// XML text, parsed trees, records, or documents read earlier) and receive an
// [envelope.Envelope] for every operation, including failures.
//
// # Key Features
//
//   - Create, read, replace and delete of single documents
//   - Concurrent batches with per-item outcomes in input order
//   - Reads by PartiQL statement or field predicate, with continuation tokens
//   - JSON or XML response bodies
//   - Stable locators that survive id-changing replaces
//
// # Connection
//
// A [Conn] is created once by the caller and shared by every store:
//
//	conn := store.NewConn(store.ConnSettings{
//	    Endpoint:        "https://dynamodb.us-east-1.amazonaws.com",
//	    AccessKeyID:     akid,
//	    SecretAccessKey: secret,
//	    Collections:     []string{"documents"},
//	})
//	s := store.New(conn, store.DefaultConfig())
//
// The client is created on first use. Creation failures are returned as the error result
// of the operation: [ErrMissingEndpoint], [ErrMissingCredential], [*ClientError] or
// [*AggregateError].
//
// # Outcomes
//
//   - StatusCreated, StatusRead, StatusDeleted on success
//   - StatusBadRequest for empty or unparsable documents, missing or invalid locators,
//     failed queries and other transport failures
//   - StatusConflict when the document id is already taken
//   - StatusNotFound when no document matches
package store
