/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	"fmt"

	"github.com/suparena/recordgateway/datastore"
	"github.com/suparena/recordgateway/datastore/memquery"
	"github.com/suparena/recordgateway/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
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
	opts := options.Find()
	if len(q.sort) > 0 {
		opts.SetSort(sortSpec(q.sort))
	}
	if q.skip > 0 {
		opts.SetSkip(q.skip)
	}
	if q.limit > 0 {
		opts.SetLimit(q.limit)
	}

	cursor, err := q.model.coll.Find(ctx, toFilter(q.where), opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", q.model.name, err)
	}
	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("find in %s: %w", q.model.name, err)
	}

	docs := make([]storagemodels.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, fromBSON(raw))
	}
	if err := q.model.populate(ctx, docs, q.pops); err != nil {
		return nil, err
	}
	return docs, nil
}

type singleQuery struct {
	model *Model
	where storagemodels.Document
	sort  []storagemodels.SortField
	pops  []storagemodels.Population
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
	opts := options.FindOne()
	if len(q.sort) > 0 {
		opts.SetSort(sortSpec(q.sort))
	}

	doc, err := decodeSingle(q.model.coll.FindOne(ctx, toFilter(q.where), opts), q.model.name)
	if err != nil || doc == nil {
		return nil, err
	}
	if err := q.model.populate(ctx, []storagemodels.Document{doc}, q.pops); err != nil {
		return nil, err
	}
	return doc, nil
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
	opts := options.Count()
	if q.skip > 0 {
		opts.SetSkip(q.skip)
	}
	if q.limit > 0 {
		opts.SetLimit(q.limit)
	}
	n, err := q.model.coll.CountDocuments(ctx, toFilter(q.where), opts)
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", q.model.name, err)
	}
	return n, nil
}

// populate replaces the references stored under each population path with
// the referenced documents, fetched with one $in lookup per population.
// Paths without a known target collection are left untouched.
func (m *Model) populate(ctx context.Context, docs []storagemodels.Document, pops []storagemodels.Population) error {
	for _, p := range pops {
		from := p.From
		if from == "" {
			from = m.refs[p.Path]
		}
		if from == "" || len(docs) == 0 {
			continue
		}

		ids := memquery.CollectRefs(docs, p.Path)
		if len(ids) == 0 {
			continue
		}

		opts := options.Find()
		if len(p.Select) > 0 {
			projection := bson.M{}
			for _, f := range p.Select {
				projection[f] = 1
			}
			opts.SetProjection(projection)
		}

		filter := toFilter(storagemodels.Document{storagemodels.IDField: storagemodels.Document{"$in": ids}})
		cursor, err := m.db.db.Collection(from).Find(ctx, filter, opts)
		if err != nil {
			return fmt.Errorf("populate %s from %s: %w", p.Path, from, err)
		}
		var raws []bson.M
		if err := cursor.All(ctx, &raws); err != nil {
			return fmt.Errorf("populate %s from %s: %w", p.Path, from, err)
		}

		byID := make(map[string]storagemodels.Document, len(raws))
		for _, raw := range raws {
			doc := fromBSON(raw)
			byID[memquery.RefKey(doc.ID())] = doc
		}
		memquery.ReplaceRefs(docs, p.Path, byID)
	}
	return nil
}
