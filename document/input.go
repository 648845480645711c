// Package document classifies caller input and converts it into the canonical form
// submitted to the document database.
//
// Callers hand documents over in whichever shape they already hold:
//
//   - [Text]: raw JSON or XML text
//   - [JSON]: an already parsed JSON object tree
//   - [XML]: an already parsed XML tree
//   - [Record]: any struct or map that encodes to a JSON object
//   - [Document]: a document previously read from the store, carrying its locator
//
// [Normalize] turns any of these into a [Canonical] document or fails with
// [ErrEmptyDocument] or [ErrUnparsableInput].
package document

import (
	"github.com/clbanning/mxj/v2"
)

// Shape identifies which variant of [Input] produced a canonical document.
type Shape int

const (
	ShapeText Shape = iota
	ShapeJSON
	ShapeXML
	ShapeRecord
	ShapeDocument
)

func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeJSON:
		return "json"
	case ShapeXML:
		return "xml"
	case ShapeRecord:
		return "record"
	case ShapeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Input is the closed set of accepted document shapes.
type Input interface {
	shape() Shape
}

// Text is raw JSON or XML text.
type Text string

// JSON is a parsed JSON object tree.
type JSON map[string]any

// XML is a parsed XML tree. The root element is the single top-level key.
type XML mxj.Map

// Record wraps a plain struct or map. Its JSON encoding must be an object.
type Record struct {
	Value any
}

// Document is a stored document as returned by a read. Locator identifies the stored
// instance and lets a replace find its target without a separate argument.
type Document struct {
	ID      string
	Locator string
	Body    map[string]any
}

func (Text) shape() Shape     { return ShapeText }
func (JSON) shape() Shape     { return ShapeJSON }
func (XML) shape() Shape      { return ShapeXML }
func (Record) shape() Shape   { return ShapeRecord }
func (Document) shape() Shape { return ShapeDocument }
