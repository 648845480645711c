package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/clbanning/mxj/v2"

	"github.com/jacentio/docfront/document"
	"github.com/jacentio/docfront/envelope"
)

// Output selects the body format of read results.
type Output int

const (
	OutputJSON Output = iota
	OutputXML
)

// XML response wrapper.
const (
	xmlDeclaration = `<?xml version="1.0" standalone="no"?>`
	xmlRoot        = "whResponse"
	xmlNamespace   = "http://well-hub.com"
	xmlDocument    = "whDocument"
)

const msgNoMatch = "no documents matched the request"

// mxj writes element values verbatim unless told to escape them.
func init() {
	mxj.XMLEscapeChars(true)
}

// Format builds the envelope for a set of matched documents.
//
// A single document in JSON form is serialized alone rather than as a one-element array.
// XML output always wraps the full result set in the whResponse root.
func Format(docs []document.Document, out Output, status envelope.Status) envelope.Envelope {
	if len(docs) == 0 {
		return envelope.NotFound(msgNoMatch, ErrNotFound)
	}

	bodies := make([]any, len(docs))
	for i, d := range docs {
		bodies[i] = d.Body
	}

	var body string
	var media envelope.MediaType
	var err error
	switch out {
	case OutputXML:
		media = envelope.XML
		body, err = formatXML(bodies)
	default:
		media = envelope.JSON
		if len(bodies) == 1 {
			body, err = formatJSON(bodies[0])
		} else {
			body, err = formatJSON(bodies)
		}
	}
	if err != nil {
		return envelope.BadRequest(err.Error(), err)
	}

	env := envelope.Success(status, body, media, docs[0].Locator)
	env.MatchCount = len(docs)
	return env
}

func formatJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("docfront: format json: %w", err)
	}
	return string(raw), nil
}

func formatXML(bodies []any) (string, error) {
	escaped, err := escapeNames(bodies)
	if err != nil {
		return "", fmt.Errorf("docfront: format xml: %w", err)
	}
	wrapped := mxj.Map{
		xmlRoot: map[string]any{
			"-xmlns":    xmlNamespace,
			xmlDocument: escaped,
		},
	}
	raw, err := wrapped.Xml()
	if err != nil {
		return "", fmt.Errorf("docfront: format xml: %w", err)
	}
	return xmlDeclaration + string(raw), nil
}

// escapeNames copies v with every object key turned into a legal XML name.
// Keys carrying mxj's attribute prefix or its text key keep their meaning.
func escapeNames(v any) (any, error) {
	switch v := v.(type) {
	case mxj.Map:
		return escapeNames(map[string]any(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			name, err := xmlName(k)
			if err != nil {
				return nil, err
			}
			if out[name], err = escapeNames(child); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			var err error
			if out[i], err = escapeNames(child); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return v, nil
	}
}

func xmlName(key string) (string, error) {
	switch {
	case key == "":
		return "", errors.New("empty field name has no XML form")
	case key == "#text":
		return key, nil
	case len(key) > 1 && key[0] == '-':
		return "-" + encodeName(key[1:]), nil
	}
	return encodeName(key), nil
}

// encodeName replaces each rune that may not appear in an XML name with _xHHHH_,
// e.g. "first name" becomes "first_x0020_name" and "1st" becomes "_x0031_st".
// An underscore that would read as such an escape is escaped itself.
func encodeName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' && looksEscaped(name[i:]):
			b.WriteString("_x005F_")
		case i == 0 && isNameStart(r), i > 0 && isNameChar(r):
			b.WriteRune(r)
		case r > 0xFFFF:
			fmt.Fprintf(&b, "_x%08X_", r)
		default:
			fmt.Fprintf(&b, "_x%04X_", r)
		}
	}
	return b.String()
}

func looksEscaped(s string) bool {
	if len(s) < 7 || s[1] != 'x' || s[6] != '_' {
		return false
	}
	for _, c := range s[2:6] {
		if !unicode.Is(unicode.ASCII_Hex_Digit, c) {
			return false
		}
	}
	return true
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == 0xB7 ||
		unicode.In(r, unicode.Mn, unicode.Mc)
}
