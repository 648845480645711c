// Package locator builds and parses the opaque locators that identify one stored document.
package locator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalid is returned when a locator string is malformed.
var ErrInvalid = errors.New("docfront: invalid document locator")

// Locator identifies one stored document instance.
// RID is assigned at creation and survives replaces that change the document id.
type Locator struct {
	Table string
	ID    string
	RID   string
}

// New returns a locator for a freshly created document with a generated RID.
func New(table, id string) Locator {
	return Locator{Table: table, ID: id, RID: uuid.NewString()}
}

// WithID returns a copy pointing at a new document id with the same RID.
func (l Locator) WithID(id string) Locator {
	l.ID = id
	return l
}

// String formats the locator as tables/{table}/docs/{id}/{rid}.
func (l Locator) String() string {
	return fmt.Sprintf("tables/%s/docs/%s/%s", url.PathEscape(l.Table), url.PathEscape(l.ID), l.RID)
}

// Parse validates and decodes a locator string.
func Parse(s string) (Locator, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 5 || parts[0] != "tables" || parts[2] != "docs" {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	table, err := url.PathUnescape(parts[1])
	if err != nil || table == "" {
		return Locator{}, fmt.Errorf("%w: bad table in %q", ErrInvalid, s)
	}
	id, err := url.PathUnescape(parts[3])
	if err != nil || id == "" {
		return Locator{}, fmt.Errorf("%w: bad id in %q", ErrInvalid, s)
	}
	rid, err := uuid.Parse(parts[4])
	if err != nil {
		return Locator{}, fmt.Errorf("%w: bad resource id in %q", ErrInvalid, s)
	}

	return Locator{Table: table, ID: id, RID: rid.String()}, nil
}
