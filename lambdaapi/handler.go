// Package lambdaapi serves a document store behind an API Gateway proxy integration.
//
// Routes:
//
//	POST   /documents              create one document (JSON or XML body)
//	POST   /documents/batch        create each element of a JSON array
//	POST   /documents/query        run a query (see queryRequest)
//	GET    /documents/{id}         read one document
//	PUT    /documents?locator=...  replace the document at locator
//	DELETE /documents/{id}         delete one document
//	DELETE /documents              delete each id of a JSON array
//
// Reads accept ?format=xml. Query accepts ?maxCount= and ?pageToken=.
package lambdaapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/docfront/document"
	"github.com/jacentio/docfront/envelope"
	"github.com/jacentio/docfront/store"
)

const basePath = "/documents"

// Handler translates API Gateway requests into store operations.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s *store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleRequest routes one API Gateway proxy request.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	rest, ok := strings.CutPrefix(req.Path, basePath)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return plain(http.StatusNotFound, "no route for "+req.Path), nil
	}
	rest = strings.Trim(rest, "/")

	body, err := requestBody(req)
	if err != nil {
		return plain(http.StatusBadRequest, err.Error()), nil
	}

	h.logger.Debug("handling request", "method", req.HTTPMethod, "path", req.Path)

	switch {
	case rest == "" && req.HTTPMethod == http.MethodPost:
		return h.single(h.store.Create(ctx, document.Text(body)))
	case rest == "" && req.HTTPMethod == http.MethodPut:
		return h.single(h.store.Replace(ctx, document.Text(body), req.QueryStringParameters["locator"]))
	case rest == "" && req.HTTPMethod == http.MethodDelete:
		return many(h.store.DeleteBatchJSON(ctx, []byte(body)))
	case rest == "batch" && req.HTTPMethod == http.MethodPost:
		return many(h.store.CreateBatchJSON(ctx, []byte(body)))
	case rest == "query" && req.HTTPMethod == http.MethodPost:
		return h.query(ctx, req, body)
	case rest != "" && !strings.Contains(rest, "/"):
		id, err := url.PathUnescape(rest)
		if err != nil {
			return plain(http.StatusBadRequest, err.Error()), nil
		}
		switch req.HTTPMethod {
		case http.MethodGet:
			return h.single(h.store.ReadByID(ctx, id, output(req)))
		case http.MethodDelete:
			return h.single(h.store.Delete(ctx, id))
		}
	}
	return plain(http.StatusMethodNotAllowed, fmt.Sprintf("%s is not supported on %s", req.HTTPMethod, req.Path)), nil
}

// queryRequest is the body of a query call: either a statement or a single predicate.
type queryRequest struct {
	Statement string `json:"statement,omitempty"`
	Field     string `json:"field,omitempty"`
	Op        string `json:"op,omitempty"`
	Value     any    `json:"value,omitempty"`
}

func (q queryRequest) query() store.Query {
	if q.Statement != "" {
		return store.Statement(q.Statement)
	}
	op := store.Comparator(q.Op)
	if op == "" {
		op = store.Eq
	}
	return store.Predicate{Field: q.Field, Op: op, Value: q.Value}
}

func (h *Handler) query(ctx context.Context, req events.APIGatewayProxyRequest, body string) (events.APIGatewayProxyResponse, error) {
	var qr queryRequest
	if err := json.Unmarshal([]byte(body), &qr); err != nil {
		return plain(http.StatusBadRequest, "invalid query: "+err.Error()), nil
	}

	opts := store.ReadOptions{
		PageToken: req.QueryStringParameters["pageToken"],
		Output:    output(req),
	}
	if v := req.QueryStringParameters["maxCount"]; v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 {
			return plain(http.StatusBadRequest, "maxCount must be a positive integer"), nil
		}
		opts.MaxCount = int32(n)
	}

	return h.single(h.store.Read(ctx, qr.query(), opts))
}

// single renders one envelope. A non-nil err means the database could not be reached.
func (h *Handler) single(env envelope.Envelope, err error) (events.APIGatewayProxyResponse, error) {
	if err != nil {
		h.logger.Error("database unavailable", "error", err)
		return plain(http.StatusServiceUnavailable, env.ErrorMessage), nil
	}
	return respond(env), nil
}

func output(req events.APIGatewayProxyRequest) store.Output {
	if strings.EqualFold(req.QueryStringParameters["format"], "xml") {
		return store.OutputXML
	}
	return store.OutputJSON
}

func requestBody(req events.APIGatewayProxyRequest) (string, error) {
	if !req.IsBase64Encoded {
		return req.Body, nil
	}
	raw, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return "", fmt.Errorf("invalid base64 body: %w", err)
	}
	return string(raw), nil
}
