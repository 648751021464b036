/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"

	"github.com/suparena/recordgateway/datastore"
	"github.com/suparena/recordgateway/datastore/memquery"
	"github.com/suparena/recordgateway/storagemodels"
)

type query struct {
	model *Model
	where storagemodels.Document
	sort  []storagemodels.SortField
	skip  int64
	limit int64
	pops  []storagemodels.Population
}

func (q *query) Sort(fields []storagemodels.SortField) datastore.Query {
	q.sort = fields
	return q
}

func (q *query) Skip(n int64) datastore.Query {
	q.skip = n
	return q
}

func (q *query) Limit(n int64) datastore.Query {
	q.limit = n
	return q
}

func (q *query) Populate(p storagemodels.Population) datastore.Query {
	q.pops = append(q.pops, p)
	return q
}

func (q *query) Exec(ctx context.Context) ([]storagemodels.Document, error) {
	docs, err := q.model.load(ctx, q.where)
	if err != nil {
		return nil, err
	}
	memquery.Sort(docs, q.sort)
	docs = memquery.Paginate(docs, q.skip, q.limit)
	if err := q.model.populate(ctx, docs, q.pops); err != nil {
		return nil, err
	}
	return docs, nil
}

type singleQuery struct {
	query
}

func (q *singleQuery) Sort(fields []storagemodels.SortField) datastore.SingleQuery {
	q.sort = fields
	return q
}

func (q *singleQuery) Populate(p storagemodels.Population) datastore.SingleQuery {
	q.pops = append(q.pops, p)
	return q
}

func (q *singleQuery) Exec(ctx context.Context) (storagemodels.Document, error) {
	q.limit = 1
	docs, err := q.query.Exec(ctx)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

type countQuery struct {
	model *Model
	where storagemodels.Document
	skip  int64
	limit int64
}

func (q *countQuery) Skip(n int64) datastore.CountQuery {
	q.skip = n
	return q
}

func (q *countQuery) Limit(n int64) datastore.CountQuery {
	q.limit = n
	return q
}

func (q *countQuery) Exec(ctx context.Context) (int64, error) {
	docs, err := q.model.load(ctx, q.where)
	if err != nil {
		return 0, err
	}
	return int64(len(memquery.Paginate(docs, q.skip, q.limit))), nil
}
