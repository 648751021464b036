/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// fakeClient is an in-memory single table understanding the expressions
// the engine emits.
type fakeClient struct {
	mu       sync.Mutex
	items    map[string]item
	calls    map[string]int
	fail     map[string][]error
	holdBack bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		items: make(map[string]item),
		calls: make(map[string]int),
		fail:  make(map[string][]error),
	}
}

// failNext queues errors returned by the next calls of op.
func (f *fakeClient) failNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = append(f.fail[op], errs...)
}

func (f *fakeClient) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeClient) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

func (f *fakeClient) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *fakeClient) enter(op string) error {
	f.calls[op]++
	if errs := f.fail[op]; len(errs) > 0 {
		f.fail[op] = errs[1:]
		return errs[0]
	}
	return nil
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func tableKey(key item) string {
	return str(key["PK"]) + "|" + str(key["SK"])
}

func copyItem(it item) item {
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

func (f *fakeClient) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetItem"); err != nil {
		return nil, err
	}
	it, ok := f.items[tableKey(in.Key)]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	return &sdk.GetItemOutput{Item: copyItem(it)}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("PutItem"); err != nil {
		return nil, err
	}
	k := tableKey(in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(PK)" {
		if _, exists := f.items[k]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	f.items[k] = copyItem(in.Item)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteItem"); err != nil {
		return nil, err
	}
	delete(f.items, tableKey(in.Key))
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeClient) Scan(ctx context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Scan"); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items, last := f.page(keys, in.ExclusiveStartKey, in.Limit, func(k string) string { return k })
	et := str(in.ExpressionAttributeValues[":et"])
	out := &sdk.ScanOutput{LastEvaluatedKey: last}
	for _, it := range items {
		if str(it[EntityTypeAttribute]) == et {
			out.Items = append(out.Items, copyItem(it))
		}
	}
	return out, nil
}

func (f *fakeClient) Query(ctx context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Query"); err != nil {
		return nil, err
	}

	pkName := in.ExpressionAttributeNames["#pk"]
	skName := in.ExpressionAttributeNames["#sk"]
	if skName == "" {
		skName = strings.Replace(pkName, "PK", "SK", 1)
	}
	values := in.ExpressionAttributeValues
	cond := aws.ToString(in.KeyConditionExpression)

	byKey := map[string]string{}
	var keys []string
	for k, it := range f.items {
		if str(it[pkName]) != str(values[":pk"]) || !skMatches(cond, str(it[skName]), values) {
			continue
		}
		order := str(it[skName]) + "|" + k
		byKey[order] = k
		keys = append(keys, order)
	}
	sort.Strings(keys)

	items, last := f.page(keys, in.ExclusiveStartKey, in.Limit, func(k string) string { return byKey[k] })
	et := str(values[":et"])
	out := &sdk.QueryOutput{LastEvaluatedKey: last}
	for _, it := range items {
		if str(it[EntityTypeAttribute]) == et {
			out.Items = append(out.Items, copyItem(it))
		}
	}
	return out, nil
}

// page returns the items of ordered keys after start, at most limit of
// them, and the key to continue from.
func (f *fakeClient) page(ordered []string, start item, limit *int32, resolve func(string) string) ([]item, item) {
	from := 0
	if start != nil {
		marker := str(start["cursor"])
		for i, k := range ordered {
			if k == marker {
				from = i + 1
				break
			}
		}
	}
	to := len(ordered)
	if limit != nil && from+int(*limit) < to {
		to = from + int(*limit)
	}

	var items []item
	for _, k := range ordered[from:to] {
		items = append(items, f.items[resolve(k)])
	}
	if to < len(ordered) {
		return items, item{"cursor": &types.AttributeValueMemberS{Value: ordered[to-1]}}
	}
	return items, nil
}

func skMatches(cond string, sk string, values map[string]types.AttributeValue) bool {
	_, skCond, found := strings.Cut(cond, " AND ")
	if !found {
		return true
	}
	switch {
	case strings.Contains(skCond, "BETWEEN"):
		return sk >= str(values[":lo"]) && sk <= str(values[":hi"])
	case skCond == "#sk = :sk":
		return sk == str(values[":sk"])
	case skCond == "#sk > :lo":
		return sk > str(values[":lo"])
	case skCond == "#sk >= :lo":
		return sk >= str(values[":lo"])
	case skCond == "#sk < :hi":
		return sk < str(values[":hi"])
	case skCond == "#sk <= :hi":
		return sk <= str(values[":hi"])
	}
	panic(fmt.Sprintf("unsupported key condition %q", cond))
}

func (f *fakeClient) BatchGetItem(ctx context.Context, in *sdk.BatchGetItemInput, _ ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("BatchGetItem"); err != nil {
		return nil, err
	}
	if len(in.RequestItems) > 1 {
		return nil, fmt.Errorf("fake supports a single table")
	}

	out := &sdk.BatchGetItemOutput{
		Responses:       map[string][]item{},
		UnprocessedKeys: map[string]types.KeysAndAttributes{},
	}
	for table, ka := range in.RequestItems {
		if len(ka.Keys) > maxBatchGet {
			return nil, fmt.Errorf("too many keys: %d", len(ka.Keys))
		}
		keys := ka.Keys
		if f.holdBack && len(keys) > 1 {
			f.holdBack = false
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: keys[len(keys)-1:]}
			keys = keys[:len(keys)-1]
		}
		for _, k := range keys {
			if it, ok := f.items[tableKey(k)]; ok {
				out.Responses[table] = append(out.Responses[table], copyItem(it))
			}
		}
	}
	if len(out.UnprocessedKeys) == 0 {
		out.UnprocessedKeys = nil
	}
	return out, nil
}
