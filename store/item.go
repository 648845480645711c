package store

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/docfront/document"
	"github.com/jacentio/docfront/internal/locator"
)

// System attributes stamped on every stored document.
const (
	attrID   = "id"
	attrRID  = "_rid"
	attrSelf = "_self"
	attrTS   = "_ts"
)

// PK represents a DynamoDB primary key.
type PK map[string]types.AttributeValue

func docKey(id string) PK {
	return PK{attrID: &types.AttributeValueMemberS{Value: id}}
}

// documentID returns the id the document will be stored under, generating one when
// the caller did not supply it.
func documentID(fields map[string]any, generate func() string) (string, error) {
	raw, ok := fields[attrID]
	if !ok || raw == nil {
		return generate(), nil
	}
	id, ok := raw.(string)
	if !ok || id == "" {
		return "", ErrInvalidID
	}
	return id, nil
}

// buildItem converts canonical fields into a DynamoDB item with system attributes set.
// User-supplied system attributes are overwritten.
func buildItem(fields map[string]any, loc locator.Locator, now time.Time) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(fields)
	if err != nil {
		return nil, err
	}

	item[attrID] = &types.AttributeValueMemberS{Value: loc.ID}
	item[attrRID] = &types.AttributeValueMemberS{Value: loc.RID}
	item[attrSelf] = &types.AttributeValueMemberS{Value: loc.String()}
	item[attrTS] = &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)}

	return item, nil
}

// unmarshalDocument converts a stored item to a Document. The body keeps the system
// attributes so formatted responses show them.
func unmarshalDocument(raw map[string]types.AttributeValue) (document.Document, error) {
	var body map[string]any
	if err := attributevalue.UnmarshalMap(raw, &body); err != nil {
		return document.Document{}, err
	}

	doc := document.Document{Body: body}
	if v, ok := raw[attrID].(*types.AttributeValueMemberS); ok {
		doc.ID = v.Value
	}
	if v, ok := raw[attrSelf].(*types.AttributeValueMemberS); ok {
		doc.Locator = v.Value
	}
	return doc, nil
}

func unmarshalDocuments(items []map[string]types.AttributeValue) ([]document.Document, error) {
	docs := make([]document.Document, 0, len(items))
	for _, raw := range items {
		doc, err := unmarshalDocument(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
