package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"
)

// API is the subset of the DynamoDB client used by the store.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	ExecuteStatement(ctx context.Context, params *dynamodb.ExecuteStatementInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ExecuteStatementOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// ConnSettings are the externally supplied connection inputs.
type ConnSettings struct {
	// Endpoint is the service endpoint URI. Required.
	Endpoint string

	// Region is the signing region.
	// Default: "us-east-1"
	Region string

	// AccessKeyID and SecretAccessKey form the credential. Both are required.
	AccessKeyID     string
	SecretAccessKey string

	// Collections are verified to exist when the client is first created.
	Collections []string
}

func (s ConnSettings) region() string {
	if s.Region == "" {
		return "us-east-1"
	}
	return s.Region
}

// check reports missing endpoint before missing credential.
func (s ConnSettings) check() error {
	if strings.TrimSpace(s.Endpoint) == "" {
		return ErrMissingEndpoint
	}
	if strings.TrimSpace(s.AccessKeyID) == "" || strings.TrimSpace(s.SecretAccessKey) == "" {
		return ErrMissingCredential
	}
	return nil
}

// ClientFactory creates the underlying client from settings.
type ClientFactory func(ctx context.Context, settings ConnSettings) (API, error)

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithClientFactory replaces the default SDK client factory.
func WithClientFactory(f ClientFactory) ConnOption {
	return func(c *Conn) {
		c.factory = f
	}
}

// WithConnLogger sets the logger used for connection events.
func WithConnLogger(logger *slog.Logger) ConnOption {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Conn owns the database client handle. The client is created on first use and shared
// by every store built on the Conn.
type Conn struct {
	settings ConnSettings
	factory  ClientFactory
	logger   *slog.Logger

	mu     sync.Mutex
	client API
}

// NewConn creates a connection handle. No network call is made until first use.
func NewConn(settings ConnSettings, opts ...ConnOption) *Conn {
	c := &Conn{
		settings: settings,
		factory:  newSDKClient,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Client returns the shared client, creating it on first call.
// A failed creation is not cached; the next call tries again.
func (c *Conn) Client(ctx context.Context) (API, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	if err := c.settings.check(); err != nil {
		c.logger.Error("database client not configured", "error", err)
		return nil, err
	}

	client, err := c.factory(ctx, c.settings)
	if err == nil {
		err = probeCollections(ctx, client, c.settings.Collections)
	}
	if err != nil {
		err = classifyConnectError(c.settings, err)
		c.logger.Error("failed to create database client",
			"endpoint", c.settings.Endpoint,
			"error", err,
		)
		return nil, err
	}

	c.logger.Info("database client created",
		"endpoint", c.settings.Endpoint,
		"collections", len(c.settings.Collections),
	)
	c.client = client
	return client, nil
}

func newSDKClient(ctx context.Context, s ConnSettings) (API, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.region()),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(s.Endpoint)
	}), nil
}

// probeCollections describes every collection concurrently and gathers all failures.
func probeCollections(ctx context.Context, client API, collections []string) error {
	if len(collections) == 0 {
		return nil
	}

	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup

	for _, name := range collections {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
				TableName: aws.String(name),
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("collection %s: %w", name, err))
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{Errs: errs}
	}
}

// classifyConnectError maps a client creation failure onto the connection error kinds.
// Missing settings win over anything reported by the SDK.
func classifyConnectError(s ConnSettings, err error) error {
	if cerr := s.check(); cerr != nil {
		return cerr
	}

	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg
	}
	return newClientError(err)
}

// ClientError describes a failure to create or open the database client.
type ClientError struct {
	// StatusCode is the HTTP status reported by the service, 0 if none.
	StatusCode int

	// RequestID is the service correlation id, empty if none.
	RequestID string

	// Code is the service error code, empty if none.
	Code string

	// Message is the service message, or the error text for non-service failures.
	Message string

	// Cause is the innermost error in the chain.
	Cause error

	err error
}

func newClientError(err error) *ClientError {
	ce := &ClientError{Message: err.Error(), err: err, Cause: rootCause(err)}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		ce.StatusCode = respErr.HTTPStatusCode()
		ce.RequestID = respErr.ServiceRequestID()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ce.Code = apiErr.ErrorCode()
		ce.Message = apiErr.ErrorMessage()
	}
	return ce
}

func (e *ClientError) summary() string {
	return fmt.Sprintf("database client could not be created from stored credentials: status code %d, request id %q, code %q, message %q, base message %q",
		e.StatusCode, e.RequestID, e.Code, e.Message, e.Cause.Error())
}

func (e *ClientError) Error() string {
	return "docfront: " + e.summary()
}

func (e *ClientError) Unwrap() error {
	return e.err
}

// AggregateError collects several failures that happened during one call.
type AggregateError struct {
	Errs []error
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "docfront: %d errors occurred.", len(e.Errs))
	for _, err := range e.Errs {
		b.WriteString(" [")
		b.WriteString(summarize(err))
		b.WriteString("]")
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error {
	return e.Errs
}

// summarize renders one inner failure: service failures in full, anything else by type.
func summarize(err error) string {
	var apiErr smithy.APIError
	var respErr *awshttp.ResponseError
	if errors.As(err, &apiErr) || errors.As(err, &respErr) {
		return newClientError(err).summary()
	}
	return fmt.Sprintf("error type: %T, message: %s", rootCause(err), err.Error())
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
