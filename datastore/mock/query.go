/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

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
	return q.run(ctx, "find")
}

func (q *query) run(ctx context.Context, op string) ([]storagemodels.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := q.model
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.record(Call{
		Collection:  m.collection,
		Op:          op,
		Where:       q.where,
		Sort:        q.sort,
		Skip:        q.skip,
		Limit:       q.limit,
		Populations: q.pops,
	})
	if m.findError != nil {
		return nil, m.findError
	}

	docs, err := memquery.FilterDocuments(m.db.collections[m.collection], q.where)
	if err != nil {
		return nil, err
	}
	docs = cloneAll(docs)
	memquery.Sort(docs, q.sort)
	docs = memquery.Paginate(docs, q.skip, q.limit)
	m.populate(docs, q.pops)
	return docs, nil
}

type singleQuery struct {
	query
	op string
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
	docs, err := q.run(ctx, q.op)
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
	m := q.model
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.record(Call{Collection: m.collection, Op: "countDocuments", Where: q.where, Skip: q.skip, Limit: q.limit})
	if m.findError != nil {
		return 0, m.findError
	}
	idx, err := m.matching(q.where)
	if err != nil {
		return 0, err
	}
	n := int64(len(idx)) - q.skip
	if n < 0 {
		n = 0
	}
	if q.limit > 0 && n > q.limit {
		n = q.limit
	}
	return n, nil
}
