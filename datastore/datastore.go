/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/recordgateway/storagemodels"
)

// Model is the per-collection handle of a persistence engine.
//
// Find-family methods return lazy queries that run on Exec. Verbs that
// address a single document return a nil Document when nothing matched.
type Model interface {
	Find(where storagemodels.Document) Query
	FindOne(where storagemodels.Document) SingleQuery
	FindByID(id any) SingleQuery
	CountDocuments(where storagemodels.Document) CountQuery

	Exists(ctx context.Context, where storagemodels.Document) (bool, error)

	Create(ctx context.Context, docs []storagemodels.Document, opts storagemodels.Options) ([]storagemodels.Document, error)

	FindByIDAndUpdate(ctx context.Context, id any, update storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error)
	FindByIDAndDelete(ctx context.Context, id any, opts storagemodels.Options) (storagemodels.Document, error)
	FindOneAndUpdate(ctx context.Context, where, update storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error)
	FindOneAndReplace(ctx context.Context, where, replacement storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error)
	FindOneAndDelete(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error)

	DeleteOne(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error)
	DeleteMany(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error)
	UpdateMany(ctx context.Context, where, update storagemodels.Document, opts storagemodels.Options) (*storagemodels.UpdateResult, error)
}

// Query is a lazily executed multi-document find.
type Query interface {
	Sort(fields []storagemodels.SortField) Query
	Skip(n int64) Query
	Limit(n int64) Query
	Populate(p storagemodels.Population) Query
	Exec(ctx context.Context) ([]storagemodels.Document, error)
}

// SingleQuery is a lazily executed single-document find. Exec returns
// (nil, nil) when nothing matched.
type SingleQuery interface {
	Sort(fields []storagemodels.SortField) SingleQuery
	Populate(p storagemodels.Population) SingleQuery
	Exec(ctx context.Context) (storagemodels.Document, error)
}

// CountQuery is a lazily executed count.
type CountQuery interface {
	Skip(n int64) CountQuery
	Limit(n int64) CountQuery
	Exec(ctx context.Context) (int64, error)
}
