package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/clbanning/mxj/v2"
)

const emptyObject = "{}"

// Canonical is a normalized document ready for submission.
type Canonical struct {
	shape  Shape
	input  Input
	fields map[string]any
}

// Shape returns the shape the canonical form was parsed as. Text input is reported as
// ShapeJSON or ShapeXML depending on which parse succeeded.
func (c Canonical) Shape() Shape { return c.shape }

// Input returns the canonical value as an Input. Normalizing it again yields an equal
// Canonical.
func (c Canonical) Input() Input { return c.input }

// Fields returns the JSON object view of the document.
func (c Canonical) Fields() map[string]any { return c.fields }

// ID returns the caller-supplied document id, or "" when the document has none.
func (c Canonical) ID() string {
	if id, ok := c.fields["id"].(string); ok {
		return id
	}
	return ""
}

// Normalize classifies in and converts it to canonical form.
//
// Order: empty object, JSON object text, XML text (only when the first non-space
// character is '<'), then already structured values which pass through unchanged.
func Normalize(in Input) (Canonical, error) {
	switch v := in.(type) {
	case Text:
		return normalizeText(string(v))
	case JSON:
		return structured(ShapeJSON, v, map[string]any(v))
	case XML:
		return structured(ShapeXML, v, map[string]any(v))
	case Document:
		return structured(ShapeDocument, v, documentFields(v))
	case Record:
		fields, err := recordFields(v.Value)
		if err != nil {
			return Canonical{}, err
		}
		return structured(ShapeRecord, v, fields)
	case nil:
		return Canonical{}, fmt.Errorf("%w: no input", ErrUnparsableInput)
	default:
		return Canonical{}, fmt.Errorf("%w: unsupported input %T", ErrUnparsableInput, in)
	}
}

func normalizeText(s string) (Canonical, error) {
	if strings.Join(strings.Fields(s), "") == emptyObject {
		return Canonical{}, ErrEmptyDocument
	}

	obj, jsonErr := parseJSONObject(s)
	if jsonErr == nil {
		return Canonical{shape: ShapeJSON, input: obj, fields: obj}, nil
	}

	trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
	if !strings.HasPrefix(trimmed, "<") {
		return Canonical{}, fmt.Errorf("%w: %w", ErrUnparsableInput, jsonErr)
	}

	tree, err := mxj.NewMapXml([]byte(trimmed))
	if err != nil {
		return Canonical{}, fmt.Errorf("%w: %w", ErrUnparsableInput, err)
	}
	if len(tree) == 0 {
		return Canonical{}, ErrEmptyDocument
	}
	return Canonical{shape: ShapeXML, input: XML(tree), fields: map[string]any(tree)}, nil
}

func parseJSONObject(s string) (JSON, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("json value is not an object")
	}
	return JSON(obj), nil
}

func structured(shape Shape, in Input, fields map[string]any) (Canonical, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return Canonical{}, fmt.Errorf("%w: %w", ErrUnparsableInput, err)
	}
	if string(raw) == emptyObject {
		return Canonical{}, ErrEmptyDocument
	}
	return Canonical{shape: shape, input: in, fields: fields}, nil
}

func documentFields(d Document) map[string]any {
	fields := make(map[string]any, len(d.Body)+1)
	for k, v := range d.Body {
		fields[k] = v
	}
	if d.ID != "" {
		fields["id"] = d.ID
	}
	return fields
}

// recordFields converts a struct or map to its JSON object form, honoring json tags.
func recordFields(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsableInput, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: record %T does not encode to a JSON object", ErrUnparsableInput, v)
	}
	return fields, nil
}
