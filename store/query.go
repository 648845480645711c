package store

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/docfront/document"
)

// Query selects documents for Read. It is either a [Statement] or a [Predicate].
type Query interface {
	isQuery()
}

// Statement is a PartiQL select statement, e.g. `SELECT * FROM "documents" WHERE kind = 'note'`.
type Statement string

// Comparator is the operator of a Predicate.
type Comparator string

const (
	Eq         Comparator = "="
	Ne         Comparator = "<>"
	Lt         Comparator = "<"
	Le         Comparator = "<="
	Gt         Comparator = ">"
	Ge         Comparator = ">="
	BeginsWith Comparator = "begins_with"
	Contains   Comparator = "contains"
)

// Predicate matches documents whose Field compares to Value. Field may be a dotted path
// into nested objects ("address.city").
type Predicate struct {
	Field string
	Op    Comparator
	Value any
}

func (Statement) isQuery() {}
func (Predicate) isQuery() {}

// validate accepts only select statements; writes go through Create, Replace and Delete.
func (st Statement) validate() error {
	text := strings.TrimSpace(string(st))
	if text == "" {
		return fmt.Errorf("%w: empty statement", ErrBadQuery)
	}
	end := strings.IndexFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		end = len(text)
	}
	if !strings.EqualFold(text[:end], "SELECT") {
		return fmt.Errorf("%w: only SELECT statements can be read", ErrBadQuery)
	}
	return nil
}

// filter builds the scan filter expression with placeholder names and values.
func (p Predicate) filter() (string, map[string]string, map[string]types.AttributeValue, error) {
	if strings.TrimSpace(p.Field) == "" {
		return "", nil, nil, fmt.Errorf("%w: predicate field is empty", ErrBadQuery)
	}

	names := make(map[string]string)
	var path []string
	for i, part := range strings.Split(p.Field, ".") {
		if part == "" {
			return "", nil, nil, fmt.Errorf("%w: bad field path %q", ErrBadQuery, p.Field)
		}
		nameKey := fmt.Sprintf("#f%d", i)
		names[nameKey] = part
		path = append(path, nameKey)
	}
	field := strings.Join(path, ".")

	value, err := attributevalue.Marshal(p.Value)
	if err != nil {
		return "", nil, nil, fmt.Errorf("%w: %w", ErrBadQuery, err)
	}
	values := map[string]types.AttributeValue{":v": value}

	var expr string
	switch p.Op {
	case Eq, Ne, Lt, Le, Gt, Ge:
		expr = fmt.Sprintf("%s %s :v", field, p.Op)
	case BeginsWith, Contains:
		expr = fmt.Sprintf("%s(%s, :v)", p.Op, field)
	default:
		return "", nil, nil, fmt.Errorf("%w: unknown comparator %q", ErrBadQuery, p.Op)
	}
	return expr, names, values, nil
}

// scan pages through the collection until maxCount matches are collected or the table
// is exhausted. Each page evaluates at most the number of documents still wanted, so
// the last evaluated key is always an exact resume point.
func (s *Store) scan(ctx context.Context, client API, p Predicate, maxCount int32, token string) ([]document.Document, string, error) {
	expr, names, values, err := p.filter()
	if err != nil {
		return nil, "", err
	}
	startKey, err := decodeScanToken(token)
	if err != nil {
		return nil, "", err
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.config.Collection),
			FilterExpression:          aws.String(expr),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
			Limit:                     aws.Int32(maxCount - int32(len(items))),
		})
		if err != nil {
			return nil, "", err
		}
		items = append(items, out.Items...)
		startKey = out.LastEvaluatedKey

		if len(startKey) == 0 || int32(len(items)) >= maxCount {
			break
		}
	}

	docs, err := unmarshalDocuments(items)
	if err != nil {
		return nil, "", err
	}
	next, err := encodeScanToken(startKey)
	if err != nil {
		return nil, "", err
	}
	return docs, next, nil
}

// execute runs a PartiQL statement with the same paging rule as scan.
func (s *Store) execute(ctx context.Context, client API, stmt Statement, maxCount int32, token string) ([]document.Document, string, error) {
	if err := stmt.validate(); err != nil {
		return nil, "", err
	}
	next, err := decodeStatementToken(token)
	if err != nil {
		return nil, "", err
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := client.ExecuteStatement(ctx, &dynamodb.ExecuteStatementInput{
			Statement:      aws.String(string(stmt)),
			NextToken:      next,
			Limit:          aws.Int32(maxCount - int32(len(items))),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return nil, "", err
		}
		items = append(items, out.Items...)
		next = out.NextToken

		if next == nil || *next == "" || int32(len(items)) >= maxCount {
			break
		}
	}

	docs, err := unmarshalDocuments(items)
	if err != nil {
		return nil, "", err
	}
	return docs, encodeStatementToken(next), nil
}
