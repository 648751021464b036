/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway

import (
	"context"

	"github.com/suparena/recordgateway/registry"
	"github.com/suparena/recordgateway/storagemodels"
)

func (g *Gateway[T]) beforeFind(ctx context.Context, filter *storagemodels.Filter, include *[]string) error {
	if g.hooks.BeforeFind == nil {
		return nil
	}
	return g.hooks.BeforeFind(ctx, filter, include)
}

func (g *Gateway[T]) afterFind(ctx context.Context, records []*Record[T]) error {
	if g.hooks.AfterFind == nil {
		return nil
	}
	return g.hooks.AfterFind(ctx, records)
}

// Find returns the records matching filter with the requested relations included.
func (g *Gateway[T]) Find(ctx context.Context, filter storagemodels.Filter, include []string) ([]*Record[T], error) {
	if err := g.beforeFind(ctx, &filter, &include); err != nil {
		return nil, err
	}

	q := g.model.Find(filter.Conditions())
	if len(filter.Sort) > 0 {
		q = q.Sort(filter.Sort)
	}
	if filter.Skip > 0 {
		q = q.Skip(filter.Skip)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	q, err := registry.PopulateIncludes(q, g.relations, include)
	if err != nil {
		return nil, err
	}

	raws, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}
	records, err := g.wrapAll(raws, include)
	if err != nil {
		return nil, err
	}

	if err := g.afterFind(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of documents matching filter, honoring Skip and Limit.
func (g *Gateway[T]) Count(ctx context.Context, filter storagemodels.Filter) (int64, error) {
	var include []string
	if err := g.beforeFind(ctx, &filter, &include); err != nil {
		return 0, err
	}

	q := g.model.CountDocuments(filter.Conditions())
	if filter.Skip > 0 {
		q = q.Skip(filter.Skip)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q.Exec(ctx)
}

// FindOne returns the first record matching filter, or nil when none does.
// Skip and Limit are ignored. AfterFind is not called when nothing matched.
func (g *Gateway[T]) FindOne(ctx context.Context, filter storagemodels.Filter, include []string) (*Record[T], error) {
	if err := g.beforeFind(ctx, &filter, &include); err != nil {
		return nil, err
	}

	q := g.model.FindOne(filter.Conditions())
	if len(filter.Sort) > 0 {
		q = q.Sort(filter.Sort)
	}
	q, err := registry.PopulateIncludes(q, g.relations, include)
	if err != nil {
		return nil, err
	}

	raw, err := q.Exec(ctx)
	if err != nil || raw == nil {
		return nil, err
	}
	rec, err := g.wrap(raw, include)
	if err != nil {
		return nil, err
	}

	if err := g.afterFind(ctx, []*Record[T]{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// FindByID returns the record with the given id, or nil when it does not
// exist. No hooks run.
func (g *Gateway[T]) FindByID(ctx context.Context, id any, include []string) (*Record[T], error) {
	q, err := registry.PopulateIncludes(g.model.FindByID(id), g.relations, include)
	if err != nil {
		return nil, err
	}

	raw, err := q.Exec(ctx)
	if err != nil || raw == nil {
		return nil, err
	}
	return g.wrap(raw, include)
}

// Exists reports whether any document matches filter.Where.
func (g *Gateway[T]) Exists(ctx context.Context, filter storagemodels.Filter) (bool, error) {
	var include []string
	if err := g.beforeFind(ctx, &filter, &include); err != nil {
		return false, err
	}
	return g.model.Exists(ctx, filter.Conditions())
}
