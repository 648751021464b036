/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memquery

import (
	"sort"

	"github.com/suparena/recordgateway/storagemodels"
)

// Sort orders docs in place by fields. Missing values sort first, as in MongoDB.
func Sort(docs []storagemodels.Document, fields []storagemodels.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			a, aok := Lookup(docs[i], f.Field)
			b, bok := Lookup(docs[j], f.Field)
			var c int
			switch {
			case !aok && !bok:
				continue
			case !aok:
				c = -1
			case !bok:
				c = 1
			default:
				var comparable bool
				c, comparable = Compare(a, b)
				if !comparable {
					continue
				}
			}
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Paginate applies skip and limit. Zero values are not applied.
func Paginate(docs []storagemodels.Document, skip, limit int64) []storagemodels.Document {
	if skip > 0 {
		if skip >= int64(len(docs)) {
			return docs[:0]
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}

// Project keeps the selected attributes plus _id. An empty selection keeps everything.
func Project(doc storagemodels.Document, fields []string) storagemodels.Document {
	if len(fields) == 0 || doc == nil {
		return doc
	}
	out := storagemodels.Document{}
	if id, ok := doc[storagemodels.IDField]; ok {
		out[storagemodels.IDField] = id
	}
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}
