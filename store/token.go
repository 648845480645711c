package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Continuation tokens carry a kind prefix so a token from one kind of query is never
// replayed against the other.
const (
	scanTokenPrefix      = "s."
	statementTokenPrefix = "q."
)

func encodeScanToken(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	var plain map[string]any
	if err := attributevalue.UnmarshalMap(key, &plain); err != nil {
		return "", err
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return "", err
	}
	return scanTokenPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeScanToken(token string) (map[string]types.AttributeValue, error) {
	if token == "" {
		return nil, nil
	}
	encoded, ok := strings.CutPrefix(token, scanTokenPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: not a predicate query token", ErrBadPageToken)
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPageToken, err)
	}
	var plain map[string]any
	if err := json.Unmarshal(raw, &plain); err != nil || len(plain) == 0 {
		return nil, fmt.Errorf("%w: malformed key", ErrBadPageToken)
	}
	return attributevalue.MarshalMap(plain)
}

func encodeStatementToken(next *string) string {
	if next == nil || *next == "" {
		return ""
	}
	return statementTokenPrefix + *next
}

func decodeStatementToken(token string) (*string, error) {
	if token == "" {
		return nil, nil
	}
	next, ok := strings.CutPrefix(token, statementTokenPrefix)
	if !ok || next == "" {
		return nil, fmt.Errorf("%w: not a statement token", ErrBadPageToken)
	}
	return &next, nil
}
