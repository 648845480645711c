// Package envelope defines the uniform result record returned by every docfront operation.
package envelope

// Status is the outcome code of an operation. Values match HTTP status codes so an
// envelope can be served directly over HTTP.
type Status int

const (
	StatusRead         Status = 200 // read or replace succeeded
	StatusCreated      Status = 201
	StatusDeleted      Status = 204
	StatusBadRequest   Status = 400
	StatusUnauthorized Status = 401
	StatusForbidden    Status = 403
	StatusNotFound     Status = 404
	StatusConflict     Status = 409
	StatusTooLarge     Status = 413
)

// IsFailure reports whether the status is one of the failure codes.
func (s Status) IsFailure() bool {
	return s >= 400
}

// MediaType identifies the format of an envelope body.
type MediaType int

const (
	Text MediaType = iota
	JSON
	XML
	HTML
	JPG
	GIF
	PNG
	PDF
)

// MIME returns the internet media type name, defaulting to text/plain.
func (m MediaType) MIME() string {
	switch m {
	case JSON:
		return "application/json"
	case XML:
		return "application/xml"
	case HTML:
		return "text/html"
	case JPG:
		return "image/jpeg"
	case GIF:
		return "image/gif"
	case PNG:
		return "image/png"
	case PDF:
		return "application/pdf"
	default:
		return "text/plain"
	}
}

// Envelope is the outcome of one operation.
//
// HasError is true exactly when Status is a failure code, and failure envelopes never
// carry a Body. ContinuationToken is only set on successful multi-document reads that
// may have more results.
type Envelope struct {
	Status              Status    `json:"status"`
	Body                string    `json:"body"`
	HasError            bool      `json:"hasError"`
	ErrorMessage        string    `json:"errorMessage,omitempty"`
	Cause               error     `json:"-"`
	MediaType           MediaType `json:"mediaType"`
	SelfReference       string    `json:"selfReference,omitempty"`
	AttachmentReference string    `json:"attachmentReference,omitempty"`
	ContinuationToken   string    `json:"continuationToken,omitempty"`
	MatchCount          int       `json:"matchCount"`
}

// Success builds a successful envelope.
func Success(status Status, body string, mediaType MediaType, selfRef string) Envelope {
	return Envelope{
		Status:        status,
		Body:          body,
		MediaType:     mediaType,
		SelfReference: selfRef,
	}
}

// Failure builds a failure envelope. The body is always empty.
func Failure(status Status, msg string, cause error) Envelope {
	return Envelope{
		Status:       status,
		HasError:     true,
		ErrorMessage: msg,
		Cause:        cause,
		MediaType:    Text,
	}
}

// BadRequest builds a StatusBadRequest failure.
func BadRequest(msg string, cause error) Envelope {
	return Failure(StatusBadRequest, msg, cause)
}

// NotFound builds a StatusNotFound failure.
func NotFound(msg string, cause error) Envelope {
	return Failure(StatusNotFound, msg, cause)
}

// Conflict builds a StatusConflict failure.
func Conflict(msg string, cause error) Envelope {
	return Failure(StatusConflict, msg, cause)
}
