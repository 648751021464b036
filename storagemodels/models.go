/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strings"
)

// IDField is the attribute holding a document's primary identifier.
const IDField = "_id"

// Document is the plain attribute bag exchanged with a persistence engine.
type Document map[string]any

// ID returns the document identifier, or nil when absent.
func (d Document) ID() any {
	if d == nil {
		return nil
	}
	return d[IDField]
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// SortField orders results by a single attribute.
type SortField struct {
	Field string
	Desc  bool
}

// ParseSort parses a comma or space separated sort expression such as
// "-createdAt,name". A leading '-' requests descending order.
func ParseSort(expr string) []SortField {
	parts := strings.FieldsFunc(expr, func(r rune) bool { return r == ',' || r == ' ' })
	fields := make([]SortField, 0, len(parts))
	for _, p := range parts {
		switch {
		case strings.HasPrefix(p, "-"):
			fields = append(fields, SortField{Field: p[1:], Desc: true})
		case strings.HasPrefix(p, "+"):
			fields = append(fields, SortField{Field: p[1:]})
		default:
			fields = append(fields, SortField{Field: p})
		}
	}
	return fields
}

// Filter describes a find request. Zero Skip and Limit are not applied.
type Filter struct {
	// Where holds the match conditions; nil matches every document.
	Where Document
	// Skip is the number of matching documents to skip.
	Skip int64
	// Limit caps the number of returned documents.
	Limit int64
	// Sort is applied only when non-empty.
	Sort []SortField
}

// Conditions returns Where, substituting an empty document for nil.
func (f Filter) Conditions() Document {
	if f.Where == nil {
		return Document{}
	}
	return f.Where
}

// Selector identifies the target of an edit or delete, either by id or by filter.
type Selector struct {
	ID    any
	Where Document
}

// ByID selects a single document by identifier.
func ByID(id any) Selector {
	return Selector{ID: id}
}

// ByFilter selects documents matching where.
func ByFilter(where Document) Selector {
	return Selector{Where: where}
}

// IsID reports whether the selector targets a document by identifier.
func (s Selector) IsID() bool {
	return s.ID != nil
}

// Filter returns the selector as match conditions; id selectors become {_id: id}.
func (s Selector) Filter() Document {
	if s.IsID() {
		return Document{IDField: s.ID}
	}
	if s.Where == nil {
		return Document{}
	}
	return s.Where
}

func (s Selector) String() string {
	if s.IsID() {
		return fmt.Sprintf("id=%v", s.ID)
	}
	return fmt.Sprintf("where=%v", s.Where)
}

// Options are forwarded to the engine by write verbs.
type Options struct {
	// ReturnNew asks update verbs to return the document after modification.
	ReturnNew bool
	// Upsert inserts a document when nothing matches.
	Upsert bool
}

// Population instructs a query to load related documents in place of the
// references stored under Path.
type Population struct {
	// Path is the attribute holding the reference(s).
	Path string
	// From names the collection to resolve references from. Empty means the
	// engine's configured reference for Path.
	From string
	// Select restricts the attributes of populated documents.
	Select []string
}

// UpdateResult summarizes a multi-document update.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedID    any
}

// DeleteResult summarizes a delete.
type DeleteResult struct {
	DeletedCount int64
}
