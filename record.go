/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway

import (
	"context"
	"encoding/json"

	"github.com/suparena/recordgateway/datastore/memquery"
	"github.com/suparena/recordgateway/storagemodels"
)

// Record is a document returned by a gateway: the decoded value, the values
// of included configured relations, and the engine's raw document.
type Record[T any] struct {
	Data     T
	Includes map[string]any

	raw       storagemodels.Document
	gateway   *Gateway[T]
	populated []string
}

// ID returns the document identifier.
func (r *Record[T]) ID() any {
	return r.raw.ID()
}

// Raw returns the engine document the record was built from.
func (r *Record[T]) Raw() storagemodels.Document {
	return r.raw
}

// Include returns the value attached for a configured relation.
func (r *Record[T]) Include(name string) (any, bool) {
	v, ok := r.Includes[name]
	return v, ok
}

// Save writes Data back to the engine by id and returns the engine's
// document. Attributes that were populated on read are stored as the ids
// of the documents they hold. Hooks do not run.
func (r *Record[T]) Save(ctx context.Context, opts storagemodels.Options) (storagemodels.Document, error) {
	doc, err := encodeDocument(r.Data)
	if err != nil {
		return nil, err
	}
	delete(doc, storagemodels.IDField)
	for _, path := range r.populated {
		if v, ok := doc[path]; ok {
			doc[path] = memquery.RefOf(v)
		}
	}
	return r.gateway.model.FindByIDAndUpdate(ctx, r.ID(), doc, opts)
}

// Delete removes the document by id and returns it, or nil when it was
// already gone. Hooks do not run.
func (r *Record[T]) Delete(ctx context.Context, opts storagemodels.Options) (storagemodels.Document, error) {
	return r.gateway.model.FindByIDAndDelete(ctx, r.ID(), opts)
}

// MarshalJSON renders Data with the included relation values merged on top.
func (r *Record[T]) MarshalJSON() ([]byte, error) {
	doc, err := encodeDocument(r.Data)
	if err != nil {
		return nil, err
	}
	if _, ok := doc[storagemodels.IDField]; !ok && r.ID() != nil {
		doc[storagemodels.IDField] = r.ID()
	}
	for k, v := range r.Includes {
		doc[k] = v
	}
	return json.Marshal(doc)
}
