/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memquery

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/storagemodels"
)

// IsOperatorDocument reports whether update is expressed with $-operators.
func IsOperatorDocument(update storagemodels.Document) bool {
	for k := range update {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// NormalizeUpdate wraps a plain document into {$set: doc}. The _id attribute
// is dropped from plain documents.
func NormalizeUpdate(update storagemodels.Document) storagemodels.Document {
	if IsOperatorDocument(update) {
		return update
	}
	set := storagemodels.Document{}
	for k, v := range update {
		if k == storagemodels.IDField {
			continue
		}
		set[k] = v
	}
	return storagemodels.Document{"$set": set}
}

// ApplyUpdate returns a copy of doc with update applied and whether anything changed.
// Supported operators are $set, $unset and $inc. Dotted fields address
// nested documents the way Lookup does; $set and $inc create missing parents.
func ApplyUpdate(doc, update storagemodels.Document) (storagemodels.Document, bool, error) {
	out := doc.Clone()
	if out == nil {
		out = storagemodels.Document{}
	}
	changed := false
	for op, arg := range NormalizeUpdate(update) {
		fields, ok := asMap(arg)
		if !ok {
			return nil, false, errors.NewValidationError(op, "expects a document")
		}
		for field, val := range fields {
			if field == storagemodels.IDField && !Equal(out[field], val) {
				return nil, false, errors.NewValidationError(field, "is immutable")
			}
			switch op {
			case "$set":
				parent, key, err := parentOf(out, field, true)
				if err != nil {
					return nil, false, err
				}
				if prev, exists := parent[key]; !exists || !reflect.DeepEqual(prev, val) {
					changed = true
				}
				parent[key] = val
			case "$unset":
				if _, exists := Lookup(out, field); !exists {
					continue
				}
				parent, key, err := parentOf(out, field, false)
				if err != nil {
					return nil, false, err
				}
				delete(parent, key)
				changed = true
			case "$inc":
				inc, ok := toFloat(val)
				if !ok {
					return nil, false, errors.NewValidationError(field, fmt.Sprintf("cannot $inc by %T", val))
				}
				parent, key, err := parentOf(out, field, true)
				if err != nil {
					return nil, false, err
				}
				cur, exists := parent[key]
				if !exists {
					parent[key] = val
					changed = changed || inc != 0
					continue
				}
				next, err := addNumber(cur, val)
				if err != nil {
					return nil, false, errors.NewValidationError(field, err.Error())
				}
				parent[key] = next
				changed = changed || inc != 0
			default:
				return nil, false, errors.NewValidationError(op, "unsupported update operator")
			}
		}
	}
	return out, changed, nil
}

// parentOf returns the map holding the last segment of path inside doc and
// that segment. Nested maps on the way are copied before they are handed
// out, so the caller may write to the result without touching the input
// document. Missing parents are created when create is set.
func parentOf(doc storagemodels.Document, path string, create bool) (map[string]any, string, error) {
	parts := strings.Split(path, ".")
	cur := map[string]any(doc)
	for _, part := range parts[:len(parts)-1] {
		var next map[string]any
		switch m := cur[part].(type) {
		case storagemodels.Document:
			c := m.Clone()
			cur[part] = c
			next = c
		case map[string]any:
			c := storagemodels.Document(m).Clone()
			cur[part] = map[string]any(c)
			next = c
		case nil:
			if !create {
				return nil, "", errors.NewValidationError(path, "parent does not exist")
			}
			next = map[string]any{}
			cur[part] = next
		default:
			return nil, "", errors.NewValidationError(path, fmt.Sprintf("cannot descend into %T at %q", m, part))
		}
		cur = next
	}
	return cur, parts[len(parts)-1], nil
}

func addNumber(cur, inc any) (any, error) {
	switch c := cur.(type) {
	case int:
		if i, ok := inc.(int); ok {
			return c + i, nil
		}
	case int64:
		if i, ok := inc.(int64); ok {
			return c + i, nil
		}
	}
	cf, ok := toFloat(cur)
	if !ok {
		return nil, fmt.Errorf("cannot $inc non-numeric value %T", cur)
	}
	inf, _ := toFloat(inc)
	return cf + inf, nil
}

// Replace returns replacement carrying doc's _id.
func Replace(doc, replacement storagemodels.Document) storagemodels.Document {
	out := replacement.Clone()
	if out == nil {
		out = storagemodels.Document{}
	}
	out[storagemodels.IDField] = doc[storagemodels.IDField]
	return out
}

// SeedFromFilter builds the base document of an upsert from the equality
// conditions of where.
func SeedFromFilter(where storagemodels.Document) storagemodels.Document {
	seed := storagemodels.Document{}
	for k, v := range where {
		if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			continue
		}
		if _, isOps := OperatorMap(v); isOps {
			continue
		}
		seed[k] = v
	}
	return seed
}
