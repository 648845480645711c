package document

import "errors"

var (
	// ErrEmptyDocument is returned when the input serializes to an empty object.
	ErrEmptyDocument = errors.New("docfront: the document to be added is empty")

	// ErrUnparsableInput is returned when text is neither a JSON object nor an XML
	// document, or a record does not encode to a JSON object.
	ErrUnparsableInput = errors.New("docfront: input will not serialize to JSON or XML; raw strings must use JSON or XML syntax")
)
