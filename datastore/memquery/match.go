/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memquery evaluates document filters, sorts and update operators in
// memory, following MongoDB semantics for the supported subset.
package memquery

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/storagemodels"
)

// Lookup resolves a dotted path such as "author.name" inside doc.
func Lookup(doc storagemodels.Document, path string) (any, bool) {
	var cur any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case storagemodels.Document:
		return m, true
	default:
		return nil, false
	}
}

// Match reports whether doc satisfies where. Supported operators are
// $eq $ne $gt $gte $lt $lte $in $nin $exists at field level and $and $or
// at top level. A nil or empty where matches every document.
func Match(doc storagemodels.Document, where storagemodels.Document) (bool, error) {
	for key, cond := range where {
		switch key {
		case "$and", "$or":
			clauses, err := clauseList(key, cond)
			if err != nil {
				return false, err
			}
			ok, err := matchClauses(doc, key, clauses)
			if err != nil || !ok {
				return false, err
			}
			continue
		}
		if strings.HasPrefix(key, "$") {
			return false, errors.NewValidationError(key, "unsupported top-level operator")
		}
		val, present := Lookup(doc, key)
		ok, err := matchField(val, present, cond)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func clauseList(op string, cond any) ([]storagemodels.Document, error) {
	rv := reflect.ValueOf(cond)
	if rv.Kind() != reflect.Slice {
		return nil, errors.NewValidationError(op, "expects an array of filters")
	}
	out := make([]storagemodels.Document, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		m, ok := asMap(rv.Index(i).Interface())
		if !ok {
			return nil, errors.NewValidationError(op, "expects an array of filters")
		}
		out = append(out, m)
	}
	return out, nil
}

func matchClauses(doc storagemodels.Document, op string, clauses []storagemodels.Document) (bool, error) {
	for _, c := range clauses {
		ok, err := Match(doc, c)
		if err != nil {
			return false, err
		}
		if op == "$or" && ok {
			return true, nil
		}
		if op == "$and" && !ok {
			return false, nil
		}
	}
	return op == "$and", nil
}

func matchField(val any, present bool, cond any) (bool, error) {
	ops, isOps := OperatorMap(cond)
	if !isOps {
		return present && Equal(val, cond), nil
	}
	for op, arg := range ops {
		var ok bool
		switch op {
		case "$eq":
			ok = present && Equal(val, arg)
		case "$ne":
			ok = !present || !Equal(val, arg)
		case "$gt", "$gte", "$lt", "$lte":
			if !present {
				return false, nil
			}
			c, comparable := Compare(val, arg)
			if !comparable {
				return false, nil
			}
			ok = (op == "$gt" && c > 0) || (op == "$gte" && c >= 0) ||
				(op == "$lt" && c < 0) || (op == "$lte" && c <= 0)
		case "$in", "$nin":
			in, err := inList(val, present, arg, op)
			if err != nil {
				return false, err
			}
			ok = in == (op == "$in")
		case "$exists":
			want, isBool := arg.(bool)
			if !isBool {
				return false, errors.NewValidationError(op, "expects a boolean")
			}
			ok = present == want
		default:
			return false, errors.NewValidationError(op, "unsupported field operator")
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// OperatorMap returns cond as an operator document when every key starts with '$'.
func OperatorMap(cond any) (map[string]any, bool) {
	m, ok := asMap(cond)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func inList(val any, present bool, arg any, op string) (bool, error) {
	rv := reflect.ValueOf(arg)
	if rv.Kind() != reflect.Slice {
		return false, errors.NewValidationError(op, "expects an array")
	}
	if !present {
		return false, nil
	}
	for i := 0; i < rv.Len(); i++ {
		if Equal(val, rv.Index(i).Interface()) {
			return true, nil
		}
	}
	return false, nil
}

// Equal compares two attribute values. Numbers compare by value regardless
// of their Go type, and an array field equals a scalar it contains.
func Equal(a, b any) bool {
	if c, ok := Compare(a, b); ok {
		return c == 0
	}
	if ra := reflect.ValueOf(a); ra.Kind() == reflect.Slice && reflect.ValueOf(b).Kind() != reflect.Slice {
		for i := 0; i < ra.Len(); i++ {
			if Equal(ra.Index(i).Interface(), b) {
				return true
			}
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders two scalar values of compatible kinds. The second result is
// false when the values cannot be ordered against each other.
func Compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// FilterDocuments returns the documents matching where, preserving order.
func FilterDocuments(docs []storagemodels.Document, where storagemodels.Document) ([]storagemodels.Document, error) {
	out := make([]storagemodels.Document, 0, len(docs))
	for _, d := range docs {
		ok, err := Match(d, where)
		if err != nil {
			return nil, fmt.Errorf("match filter: %w", err)
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}
