/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memquery

import (
	"fmt"

	"github.com/suparena/recordgateway/storagemodels"
)

// RefKey renders a reference so ids of different Go types compare by value.
func RefKey(v any) string {
	return fmt.Sprint(v)
}

// CollectRefs returns the distinct non-nil references held at path, which
// may be a single reference or a list of them.
func CollectRefs(docs []storagemodels.Document, path string) []any {
	seen := map[string]bool{}
	var ids []any
	add := func(v any) {
		if v == nil || seen[RefKey(v)] {
			return
		}
		seen[RefKey(v)] = true
		ids = append(ids, v)
	}
	for _, d := range docs {
		switch v := d[path].(type) {
		case []any:
			for _, ref := range v {
				add(ref)
			}
		default:
			add(v)
		}
	}
	return ids
}

// ReplaceRefs swaps the references at path for copies of the documents in
// byID, keyed by RefKey. Unresolved list entries are dropped and an
// unresolved single reference becomes nil.
func ReplaceRefs(docs []storagemodels.Document, path string, byID map[string]storagemodels.Document) {
	for _, d := range docs {
		val, ok := d[path]
		if !ok || val == nil {
			continue
		}
		if list, isList := val.([]any); isList {
			resolved := make([]any, 0, len(list))
			for _, ref := range list {
				if r, found := byID[RefKey(ref)]; found {
					resolved = append(resolved, r.Clone())
				}
			}
			d[path] = resolved
			continue
		}
		if r, found := byID[RefKey(val)]; found {
			d[path] = r.Clone()
		} else {
			d[path] = nil
		}
	}
}

// RefOf undoes population: a document becomes its _id and a list is mapped
// element-wise. Other values, and documents without an _id, are returned as is.
func RefOf(v any) any {
	switch x := v.(type) {
	case storagemodels.Document:
		if id, ok := x[storagemodels.IDField]; ok {
			return id
		}
	case map[string]any:
		if id, ok := x[storagemodels.IDField]; ok {
			return id
		}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = RefOf(e)
		}
		return out
	}
	return v
}
