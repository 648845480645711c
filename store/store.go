package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/docfront/document"
	"github.com/jacentio/docfront/envelope"
	"github.com/jacentio/docfront/internal/locator"
)

// Store provides document operations over one DynamoDB collection.
//
// Every operation returns an envelope. The error result is non-nil only when the
// connection cannot be established at all (see ConnSettings); expected outcomes such as
// NotFound or Conflict are reported through the envelope.
type Store struct {
	conn   *Conn
	config Config
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New creates a new Store instance.
func New(conn *Conn, config Config) *Store {
	return NewWithLogger(conn, config, nil)
}

// NewWithLogger creates a new Store instance that logs to logger.
func NewWithLogger(conn *Conn, config Config, logger *slog.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		conn:   conn,
		config: config,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Collection returns the name of the collection the store writes to.
func (s *Store) Collection() string {
	return s.config.Collection
}

// Create adds a document. Documents without an id get a generated one.
// Success returns StatusCreated with the id as body and the locator as SelfReference.
func (s *Store) Create(ctx context.Context, in document.Input) (envelope.Envelope, error) {
	c, err := document.Normalize(in)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), nil
	}
	id, err := documentID(c.Fields(), s.newID)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), nil
	}

	client, err := s.conn.Client(ctx)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), err
	}

	loc := locator.New(s.config.Collection, id)
	item, err := buildItem(c.Fields(), loc, s.now())
	if err != nil {
		return envelope.BadRequest(err.Error(), err), nil
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.Collection),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return s.writeFailure("create", id, err, ErrConflict), nil
	}

	s.logger.Debug("document created", "id", id, "shape", c.Shape().String())
	return envelope.Success(envelope.StatusCreated, id, envelope.Text, loc.String()), nil
}

// ReadByID returns the document with the given id, or NotFound.
func (s *Store) ReadByID(ctx context.Context, id string, out Output) (envelope.Envelope, error) {
	if id == "" {
		return envelope.BadRequest(ErrEmptyID.Error(), ErrEmptyID), nil
	}

	client, err := s.conn.Client(ctx)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), err
	}

	result, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.Collection),
		Key:            docKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return s.transportFailure("read", id, err), nil
	}
	if result.Item == nil {
		return Format(nil, out, envelope.StatusRead), nil
	}

	doc, err := unmarshalDocument(result.Item)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), nil
	}
	return Format([]document.Document{doc}, out, envelope.StatusRead), nil
}

// ReadOptions configures Read.
type ReadOptions struct {
	// MaxCount is the maximum number of documents returned. 0 uses Config.MaxItemCount.
	MaxCount int32

	// PageToken resumes a previous read from its ContinuationToken.
	PageToken string

	// Output selects JSON or XML bodies.
	Output Output
}

// Read returns up to MaxCount documents matching q. When more results may remain the
// envelope carries a ContinuationToken to pass back as PageToken.
func (s *Store) Read(ctx context.Context, q Query, opts ReadOptions) (envelope.Envelope, error) {
	maxCount := opts.MaxCount
	if maxCount <= 0 {
		maxCount = s.config.MaxItemCount
	}

	if stmt, ok := q.(Statement); ok {
		if err := stmt.validate(); err != nil {
			return envelope.BadRequest(err.Error(), err), nil
		}
	}

	client, err := s.conn.Client(ctx)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), err
	}

	var docs []document.Document
	var next string
	switch q := q.(type) {
	case Statement:
		docs, next, err = s.execute(ctx, client, q, maxCount, opts.PageToken)
	case Predicate:
		docs, next, err = s.scan(ctx, client, q, maxCount, opts.PageToken)
	default:
		err = fmt.Errorf("unsupported query %T", q)
	}
	if err != nil {
		if !errors.Is(err, ErrBadQuery) {
			err = fmt.Errorf("%w: %w", ErrBadQuery, err)
		}
		s.logger.Warn("query failed", "collection", s.config.Collection, "error", err)
		return envelope.BadRequest(err.Error(), err), nil
	}

	env := Format(docs, opts.Output, envelope.StatusRead)
	if !env.HasError {
		env.ContinuationToken = next
	}
	return env, nil
}

// Replace overwrites the document at loc with in. When loc is empty, in must be a
// Document carrying its own locator.
//
// If the new body has a different id the document moves to that id; a collision with an
// existing document yields Conflict. A locator that no longer resolves yields NotFound.
func (s *Store) Replace(ctx context.Context, in document.Input, loc string) (envelope.Envelope, error) {
	if loc == "" {
		d, ok := in.(document.Document)
		if !ok || d.Locator == "" {
			return envelope.BadRequest(ErrMissingLocator.Error(), ErrMissingLocator), nil
		}
		loc = d.Locator
	}

	target, err := locator.Parse(loc)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), nil
	}

	c, err := document.Normalize(in)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), nil
	}
	id, err := documentID(c.Fields(), func() string { return target.ID })
	if err != nil {
		return envelope.BadRequest(err.Error(), err), nil
	}

	client, err := s.conn.Client(ctx)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), err
	}

	next := target.WithID(id)
	item, err := buildItem(c.Fields(), next, s.now())
	if err != nil {
		return envelope.BadRequest(err.Error(), err), nil
	}

	ridGuard := map[string]string{"#rid": attrRID}
	ridValue := map[string]types.AttributeValue{
		":rid": &types.AttributeValueMemberS{Value: target.RID},
	}

	if id == target.ID {
		_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(target.Table),
			Item:                      item,
			ConditionExpression:       aws.String("#rid = :rid"),
			ExpressionAttributeNames:  ridGuard,
			ExpressionAttributeValues: ridValue,
		})
		if err != nil {
			return s.writeFailure("replace", id, err, ErrNotFound), nil
		}
	} else {
		_, err = client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{
					Delete: &types.Delete{
						TableName:                 aws.String(target.Table),
						Key:                       docKey(target.ID),
						ConditionExpression:       aws.String("#rid = :rid"),
						ExpressionAttributeNames:  ridGuard,
						ExpressionAttributeValues: ridValue,
					},
				},
				{
					Put: &types.Put{
						TableName:           aws.String(target.Table),
						Item:                item,
						ConditionExpression: aws.String("attribute_not_exists(id)"),
					},
				},
			},
		})
		if err = mapReplaceTransactionError(err, 0, 1); err != nil {
			return s.writeFailure("replace", id, err, nil), nil
		}
	}

	s.logger.Debug("document replaced", "id", id, "previousID", target.ID)
	return envelope.Success(envelope.StatusRead, id, envelope.Text, next.String()), nil
}

// Delete removes the document with the given id. Success returns StatusDeleted with an
// empty body.
func (s *Store) Delete(ctx context.Context, id string) (envelope.Envelope, error) {
	if id == "" {
		return envelope.BadRequest(ErrEmptyID.Error(), ErrEmptyID), nil
	}

	client, err := s.conn.Client(ctx)
	if err != nil {
		return envelope.BadRequest(err.Error(), err), err
	}

	_, err = client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.config.Collection),
		Key:                 docKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		return s.writeFailure("delete", id, err, ErrNotFound), nil
	}

	s.logger.Debug("document deleted", "id", id)
	return envelope.Envelope{Status: envelope.StatusDeleted, MediaType: envelope.Text}, nil
}

// writeFailure converts a write error to an envelope. A failed condition means onCondition
// (ErrConflict or ErrNotFound); errors already mapped to those sentinels keep their kind.
func (s *Store) writeFailure(op, id string, err error, onCondition error) envelope.Envelope {
	var condErr *types.ConditionalCheckFailedException
	if onCondition != nil && errors.As(err, &condErr) {
		err = fmt.Errorf("%w: %w", onCondition, err)
	}

	switch {
	case errors.Is(err, ErrConflict):
		return envelope.Conflict(err.Error(), err)
	case errors.Is(err, ErrNotFound):
		return envelope.NotFound(err.Error(), err)
	default:
		return s.transportFailure(op, id, err)
	}
}

func (s *Store) transportFailure(op, id string, err error) envelope.Envelope {
	s.logger.Warn("document operation failed",
		"op", op,
		"id", id,
		"collection", s.config.Collection,
		"error", err,
	)
	return envelope.BadRequest(err.Error(), err)
}

// mapReplaceTransactionError maps DynamoDB transaction errors for id-changing replaces.
// deleteIndex is the guarded delete of the old id, putIndex the put of the new id.
func mapReplaceTransactionError(err error, deleteIndex, putIndex int) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				if i == deleteIndex {
					return fmt.Errorf("%w: %w", ErrNotFound, err)
				}
				if i == putIndex {
					return fmt.Errorf("%w: %w", ErrConflict, err)
				}
			}
		}
	}

	return err
}
