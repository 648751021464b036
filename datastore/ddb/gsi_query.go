/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/recordgateway/datastore/memquery"
	"github.com/suparena/recordgateway/storagemodels"
)

// collectionQuery builds a Query listing the collection through the
// configured GSI. It applies when the index map gives the GSI partition key a
// constant value, as in {"GSI1PK": "POST"}. Conditions of where on the
// attribute feeding the GSI sort key are pushed down as the key condition;
// the result is still filtered client-side. It returns nil when the GSI
// cannot serve the collection.
func (m *Model) collectionQuery(indexMap map[string]string, where storagemodels.Document) *sdk.QueryInput {
	gsi := m.db.gsi
	if gsi == nil {
		return nil
	}
	pkValue, ok := indexMap[gsi.PartitionKeyName]
	if !ok || pkValue == "" || len(macroFields(pkValue)) > 0 {
		return nil
	}

	names := map[string]string{
		"#pk": gsi.PartitionKeyName,
		"#et": EntityTypeAttribute,
	}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pkValue},
		":et": &types.AttributeValueMemberS{Value: m.collection},
	}
	keyCond := "#pk = :pk"

	if cond, skValues, ok := sortKeyCondition(indexMap[gsi.SortKeyName], where); ok {
		keyCond += " AND " + cond
		names["#sk"] = gsi.SortKeyName
		for k, v := range skValues {
			values[k] = v
		}
	}

	return &sdk.QueryInput{
		TableName:                 &m.db.tableName,
		IndexName:                 aws.String(gsi.IndexName),
		KeyConditionExpression:    aws.String(keyCond),
		FilterExpression:          aws.String("#et = :et"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
}

// sortKeyCondition translates the condition of where on the single
// attribute of a "PREFIX{field}" sort key template into a key condition on
// "#sk". Only string operands are pushed down. A range is widened to an
// inclusive BETWEEN when both bounds are present.
func sortKeyCondition(template string, where storagemodels.Document) (string, map[string]types.AttributeValue, bool) {
	fields := macroFields(template)
	if len(fields) != 1 {
		return "", nil, false
	}
	field := fields[0]
	prefix, found := strings.CutSuffix(template, "{"+field+"}")
	if !found || strings.Contains(prefix, "{") {
		return "", nil, false
	}

	cond, ok := where[field]
	if !ok {
		return "", nil, false
	}
	str := func(v any) (*types.AttributeValueMemberS, bool) {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		return &types.AttributeValueMemberS{Value: prefix + s}, true
	}

	if v, ok := str(cond); ok {
		return "#sk = :sk", map[string]types.AttributeValue{":sk": v}, true
	}

	ops, ok := memquery.OperatorMap(cond)
	if !ok {
		return "", nil, false
	}
	if v, ok := str(ops["$eq"]); ok {
		return "#sk = :sk", map[string]types.AttributeValue{":sk": v}, true
	}

	var lower, upper *types.AttributeValueMemberS
	var lowerOp, upperOp string
	for _, op := range []string{"$gte", "$gt"} {
		if v, ok := str(ops[op]); ok {
			lower, lowerOp = v, op
		}
	}
	for _, op := range []string{"$lte", "$lt"} {
		if v, ok := str(ops[op]); ok {
			upper, upperOp = v, op
		}
	}

	switch {
	case lower != nil && upper != nil:
		return "#sk BETWEEN :lo AND :hi", map[string]types.AttributeValue{":lo": lower, ":hi": upper}, true
	case lower != nil:
		return "#sk " + comparators[lowerOp] + " :lo", map[string]types.AttributeValue{":lo": lower}, true
	case upper != nil:
		return "#sk " + comparators[upperOp] + " :hi", map[string]types.AttributeValue{":hi": upper}, true
	}
	return "", nil, false
}

var comparators = map[string]string{
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}
