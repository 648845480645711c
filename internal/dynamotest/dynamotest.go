// Package dynamotest provides an in-memory DynamoDB stand-in for tests.
package dynamotest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Fake is an in-memory stand-in for the subset of DynamoDB used by docfront.
// Tables are keyed by the string attribute "id". Filters support "#name = :value" only.
type Fake struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	calls  map[string]int
	errs   map[string]error

	// StatementItems is the result set served to every ExecuteStatement call.
	StatementItems []map[string]types.AttributeValue
	statements     []string
}

// New returns a Fake holding the given empty tables.
func New(tables ...string) *Fake {
	f := &Fake{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
		calls:  make(map[string]int),
		errs:   make(map[string]error),
	}
	for _, t := range tables {
		f.tables[t] = make(map[string]map[string]types.AttributeValue)
	}
	return f
}

// FailWith makes every later call of op return err.
func (f *Fake) FailWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

// CallCount returns how many times op was called.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Item returns the stored item, or nil.
func (f *Fake) Item(table, id string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables[table][id]
}

// Statements returns the statements executed so far.
func (f *Fake) Statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statements...)
}

// begin records the call and returns an injected error, if any. Callers hold f.mu.
func (f *Fake) begin(op string) error {
	f.calls[op]++
	return f.errs[op]
}

func (f *Fake) table(name *string) (map[string]map[string]types.AttributeValue, error) {
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return t, nil
}

func idOf(item map[string]types.AttributeValue) string {
	if v, ok := item["id"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func conditionHolds(expr *string, names map[string]string, values map[string]types.AttributeValue, current map[string]types.AttributeValue) bool {
	switch aws.ToString(expr) {
	case "":
		return true
	case "attribute_not_exists(id)":
		return current == nil
	case "attribute_exists(id)":
		return current != nil
	case "#rid = :rid":
		want, _ := values[":rid"].(*types.AttributeValueMemberS)
		return current != nil && want != nil && stringAttr(current, names["#rid"]) == want.Value
	default:
		panic("dynamotest: unsupported condition " + aws.ToString(expr))
	}
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *Fake) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetItem"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: t[idOf(in.Key)]}, nil
}

func (f *Fake) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutItem"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	id := idOf(in.Item)
	if !conditionHolds(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, t[id]) {
		return nil, conditionFailed()
	}
	t[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteItem"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	id := idOf(in.Key)
	if !conditionHolds(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, t[id]) {
		return nil, conditionFailed()
	}
	delete(t, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *Fake) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("TransactWriteItems"); err != nil {
		return nil, err
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		ok := true
		switch {
		case ti.Put != nil:
			t, err := f.table(ti.Put.TableName)
			if err != nil {
				return nil, err
			}
			ok = conditionHolds(ti.Put.ConditionExpression, ti.Put.ExpressionAttributeNames, ti.Put.ExpressionAttributeValues, t[idOf(ti.Put.Item)])
		case ti.Delete != nil:
			t, err := f.table(ti.Delete.TableName)
			if err != nil {
				return nil, err
			}
			ok = conditionHolds(ti.Delete.ConditionExpression, ti.Delete.ExpressionAttributeNames, ti.Delete.ExpressionAttributeValues, t[idOf(ti.Delete.Key)])
		}
		code := "None"
		if !ok {
			code = "ConditionalCheckFailed"
			failed = true
		}
		reasons[i] = types.CancellationReason{Code: aws.String(code)}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range in.TransactItems {
		switch {
		case ti.Delete != nil:
			delete(f.tables[aws.ToString(ti.Delete.TableName)], idOf(ti.Delete.Key))
		case ti.Put != nil:
			f.tables[aws.ToString(ti.Put.TableName)][idOf(ti.Put.Item)] = ti.Put.Item
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *Fake) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Scan"); err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := idOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(ids, after)
		if start < len(ids) && ids[start] == after {
			start++
		}
	}

	limit := len(ids)
	if in.Limit != nil {
		limit = int(*in.Limit)
	}

	out := &dynamodb.ScanOutput{}
	evaluated := 0
	for _, id := range ids[start:] {
		if evaluated == limit {
			break
		}
		evaluated++
		item := t[id]
		match, err := filterMatches(aws.ToString(in.FilterExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues, item)
		if err != nil {
			return nil, err
		}
		if match {
			out.Items = append(out.Items, item)
		}
		if evaluated == limit {
			out.LastEvaluatedKey = map[string]types.AttributeValue{"id": item["id"]}
		}
	}
	return out, nil
}

func filterMatches(expr string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) (bool, error) {
	if expr == "" {
		return true, nil
	}
	parts := strings.Fields(expr)
	if len(parts) != 3 || parts[1] != "=" {
		return false, fmt.Errorf("dynamotest: unsupported filter %q", expr)
	}
	attr, ok := item[names[parts[0]]]
	if !ok {
		return false, nil
	}
	var got, want any
	if err := attributevalue.Unmarshal(attr, &got); err != nil {
		return false, err
	}
	if err := attributevalue.Unmarshal(values[parts[2]], &want); err != nil {
		return false, err
	}
	return reflect.DeepEqual(got, want), nil
}

func (f *Fake) ExecuteStatement(ctx context.Context, in *dynamodb.ExecuteStatementInput, _ ...func(*dynamodb.Options)) (*dynamodb.ExecuteStatementOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ExecuteStatement"); err != nil {
		return nil, err
	}
	f.statements = append(f.statements, aws.ToString(in.Statement))

	offset := 0
	if in.NextToken != nil {
		n, err := strconv.Atoi(*in.NextToken)
		if err != nil {
			return nil, errors.New("ValidationException: invalid NextToken")
		}
		offset = n
	}
	end := len(f.StatementItems)
	if in.Limit != nil && offset+int(*in.Limit) < end {
		end = offset + int(*in.Limit)
	}

	out := &dynamodb.ExecuteStatementOutput{Items: f.StatementItems[offset:end]}
	if end < len(f.StatementItems) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *Fake) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeTable"); err != nil {
		return nil, err
	}
	if _, err := f.table(in.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: in.TableName},
	}, nil
}
