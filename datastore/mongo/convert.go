/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/recordgateway/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toFilter converts match conditions to BSON, coercing ObjectId strings
// under _id.
func toFilter(where storagemodels.Document) bson.M {
	if where == nil {
		return bson.M{}
	}
	return toBSON(where)
}

func toBSON(doc map[string]any) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if k == storagemodels.IDField {
			out[k] = coerceID(v)
			continue
		}
		out[k] = toBSONValue(v)
	}
	return out
}

func toBSONValue(v any) any {
	switch t := v.(type) {
	case storagemodels.Document:
		return toBSON(t)
	case map[string]any:
		return toBSON(t)
	case []any:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = toBSONValue(e)
		}
		return out
	case strfmt.DateTime:
		return time.Time(t)
	case *strfmt.DateTime:
		if t == nil {
			return nil
		}
		return time.Time(*t)
	default:
		return v
	}
}

// coerceID turns 24-character hex strings into ObjectIDs, descending into
// operator documents such as {$in: [...]} and lists.
func coerceID(v any) any {
	switch t := v.(type) {
	case string:
		if strfmt.IsBSONObjectID(t) {
			if oid, err := primitive.ObjectIDFromHex(t); err == nil {
				return oid
			}
		}
		return t
	case storagemodels.Document:
		return coerceOperators(t)
	case map[string]any:
		return coerceOperators(t)
	case []any:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = coerceID(e)
		}
		return out
	default:
		return toBSONValue(v)
	}
}

func coerceOperators(ops map[string]any) bson.M {
	out := make(bson.M, len(ops))
	for op, arg := range ops {
		out[op] = coerceID(arg)
	}
	return out
}

// fromBSON converts a driver document into a Document of plain Go values:
// ObjectIDs become hex strings and BSON dates become time.Time.
func fromBSON(raw bson.M) storagemodels.Document {
	out := make(storagemodels.Document, len(raw))
	for k, v := range raw {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return fromBSON(t)
	case map[string]any:
		return fromBSON(t)
	case bson.D:
		out := make(storagemodels.Document, len(t))
		for _, e := range t {
			out[e.Key] = fromValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromValue(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func sortSpec(fields []storagemodels.SortField) bson.D {
	spec := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		spec = append(spec, bson.E{Key: f.Field, Value: dir})
	}
	return spec
}

// isEmptyUpdate reports whether every operator of a normalized update has
// nothing to apply.
func isEmptyUpdate(update storagemodels.Document) bool {
	for _, arg := range update {
		switch fields := arg.(type) {
		case storagemodels.Document:
			if len(fields) > 0 {
				return false
			}
		case map[string]any:
			if len(fields) > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
