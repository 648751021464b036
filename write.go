/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway

import (
	"context"
	"fmt"

	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/storagemodels"
)

func (g *Gateway[T]) beforeEdit(ctx context.Context, target storagemodels.Selector, data storagemodels.Document, opts *storagemodels.Options) (storagemodels.Document, error) {
	if g.hooks.BeforeEdit == nil {
		return data, nil
	}
	return g.hooks.BeforeEdit(ctx, target, data, opts)
}

func (g *Gateway[T]) afterEdit(ctx context.Context, target storagemodels.Selector, result EditResult) error {
	if g.hooks.AfterEdit == nil {
		return nil
	}
	return g.hooks.AfterEdit(ctx, target, result)
}

func (g *Gateway[T]) beforeDelete(ctx context.Context, target storagemodels.Selector, opts *storagemodels.Options) error {
	if g.hooks.BeforeDelete == nil {
		return nil
	}
	return g.hooks.BeforeDelete(ctx, target, opts)
}

func (g *Gateway[T]) afterDelete(ctx context.Context, where storagemodels.Document, outcome DeleteOutcome) error {
	if g.hooks.AfterDelete == nil {
		return nil
	}
	return g.hooks.AfterDelete(ctx, where, outcome)
}

// removedList wraps a find-and-delete result for AfterDelete.
func removedList(doc storagemodels.Document) []storagemodels.Document {
	if doc == nil {
		return []storagemodels.Document{}
	}
	return []storagemodels.Document{doc}
}

// FindByIDAndUpdate updates the document with the given id and returns the
// engine's document as is.
func (g *Gateway[T]) FindByIDAndUpdate(ctx context.Context, id any, data storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	target := storagemodels.ByID(id)
	data, err := g.beforeEdit(ctx, target, data, &opts)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = storagemodels.Document{}
	}

	res, err := g.model.FindByIDAndUpdate(ctx, id, data, opts)
	if err != nil {
		return nil, err
	}
	if err := g.afterEdit(ctx, target, EditResult{Document: res}); err != nil {
		return nil, err
	}
	return res, nil
}

// FindOneAndUpdate updates the first document matching where.
func (g *Gateway[T]) FindOneAndUpdate(ctx context.Context, where, data storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return g.findOneAndEdit(ctx, where, data, opts, g.model.FindOneAndUpdate)
}

// FindOneAndReplace replaces the first document matching where.
func (g *Gateway[T]) FindOneAndReplace(ctx context.Context, where, data storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return g.findOneAndEdit(ctx, where, data, opts, g.model.FindOneAndReplace)
}

type findOneAndEditFunc func(ctx context.Context, where, data storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error)

func (g *Gateway[T]) findOneAndEdit(ctx context.Context, where, data storagemodels.Document, opts storagemodels.Options, op findOneAndEditFunc) (storagemodels.Document, error) {
	target := storagemodels.ByFilter(where)
	data, err := g.beforeEdit(ctx, target, data, &opts)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = storagemodels.Document{}
	}

	res, err := op(ctx, target.Filter(), data, opts)
	if err != nil {
		return nil, err
	}
	if err := g.afterEdit(ctx, target, EditResult{Document: res}); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateMany updates every document matching where. When data is nil, either
// as passed or as returned by BeforeEdit, the engine is not called and a
// zero-modified result is returned.
func (g *Gateway[T]) UpdateMany(ctx context.Context, where, data storagemodels.Document, opts storagemodels.Options) (*storagemodels.UpdateResult, error) {
	target := storagemodels.ByFilter(where)
	data, err := g.beforeEdit(ctx, target, data, &opts)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return &storagemodels.UpdateResult{}, nil
	}

	res, err := g.model.UpdateMany(ctx, target.Filter(), data, opts)
	if err != nil {
		return nil, err
	}
	if err := g.afterEdit(ctx, target, EditResult{Update: res}); err != nil {
		return nil, err
	}
	return res, nil
}

// FindByIDAndDelete deletes the document with the given id and returns it,
// or nil when it did not exist.
func (g *Gateway[T]) FindByIDAndDelete(ctx context.Context, id any, opts storagemodels.Options) (storagemodels.Document, error) {
	target := storagemodels.ByID(id)
	if err := g.beforeDelete(ctx, target, &opts); err != nil {
		return nil, err
	}

	res, err := g.model.FindByIDAndDelete(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	if err := g.afterDelete(ctx, target.Filter(), DeleteOutcome{Removed: removedList(res)}); err != nil {
		return nil, err
	}
	return res, nil
}

// FindOneAndDelete deletes the first document matching where and returns it,
// or nil when nothing matched.
func (g *Gateway[T]) FindOneAndDelete(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	target := storagemodels.ByFilter(where)
	if err := g.beforeDelete(ctx, target, &opts); err != nil {
		return nil, err
	}

	res, err := g.model.FindOneAndDelete(ctx, target.Filter(), opts)
	if err != nil {
		return nil, err
	}
	if err := g.afterDelete(ctx, target.Filter(), DeleteOutcome{Removed: removedList(res)}); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteOne deletes the first document matching where.
func (g *Gateway[T]) DeleteOne(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error) {
	target := storagemodels.ByFilter(where)
	if err := g.beforeDelete(ctx, target, &opts); err != nil {
		return nil, err
	}

	res, err := g.model.DeleteOne(ctx, target.Filter(), opts)
	if err != nil {
		return nil, err
	}
	if err := g.afterDelete(ctx, target.Filter(), DeleteOutcome{Result: res}); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteMany deletes every document matching where. With an AfterDelete hook
// the matching documents are fetched first, so the hook and the returned
// outcome list what was removed.
func (g *Gateway[T]) DeleteMany(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (DeleteOutcome, error) {
	target := storagemodels.ByFilter(where)
	if err := g.beforeDelete(ctx, target, &opts); err != nil {
		return DeleteOutcome{}, err
	}

	var outcome DeleteOutcome
	if g.hooks.AfterDelete != nil {
		removed, err := g.model.Find(target.Filter()).Exec(ctx)
		if err != nil {
			return DeleteOutcome{}, err
		}
		outcome.Removed = removed
	}

	res, err := g.model.DeleteMany(ctx, target.Filter(), opts)
	if err != nil {
		return DeleteOutcome{}, err
	}
	outcome.Result = res

	if err := g.afterDelete(ctx, target.Filter(), outcome); err != nil {
		return DeleteOutcome{}, err
	}
	return outcome, nil
}

// Create stores one item and returns it as a record.
func (g *Gateway[T]) Create(ctx context.Context, item T, opts storagemodels.Options) (*Record[T], error) {
	records, err := g.create(ctx, []T{item}, opts, true)
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// CreateMany stores items and returns their records in the same order.
func (g *Gateway[T]) CreateMany(ctx context.Context, items []T, opts storagemodels.Options) ([]*Record[T], error) {
	return g.create(ctx, items, opts, false)
}

func (g *Gateway[T]) create(ctx context.Context, items []T, opts storagemodels.Options, single bool) ([]*Record[T], error) {
	if g.hooks.BeforeCreate != nil {
		var err error
		if items, err = g.hooks.BeforeCreate(ctx, items); err != nil {
			return nil, err
		}
	}
	if single && len(items) != 1 {
		return nil, errors.NewValidationError("items", "Create expects exactly one item after BeforeCreate")
	}

	records := []*Record[T]{}
	if len(items) > 0 {
		docs := make([]storagemodels.Document, 0, len(items))
		for _, item := range items {
			doc, err := encodeDocument(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}

		created, err := g.model.Create(ctx, docs, opts)
		if err != nil {
			g.logger().Error("%s: create failed: %v", g.name, err)
			return nil, err
		}
		if len(created) != len(docs) {
			return nil, errors.NewValidationError("items", fmt.Sprintf("engine returned %d documents for %d items", len(created), len(docs)))
		}
		if records, err = g.wrapAll(created, nil); err != nil {
			return nil, err
		}
	}

	if g.hooks.AfterCreate != nil {
		if err := g.hooks.AfterCreate(ctx, items, records); err != nil {
			return nil, err
		}
	}
	return records, nil
}
