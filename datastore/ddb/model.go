/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/suparena/recordgateway/datastore"
	"github.com/suparena/recordgateway/datastore/memquery"
	"github.com/suparena/recordgateway/storagemodels"
)

var _ datastore.Model = (*Model)(nil)

// Collection returns the collection name
func (m *Model) Collection() string {
	return m.collection
}

// idLookup returns the _id of where when it is given as a plain value.
func idLookup(where storagemodels.Document) (any, bool) {
	id, ok := where[storagemodels.IDField]
	if !ok || id == nil {
		return nil, false
	}
	if _, isOps := memquery.OperatorMap(id); isOps {
		return nil, false
	}
	if _, isList := id.([]any); isList {
		return nil, false
	}
	return id, true
}

// load reads the documents of the collection matching where. A plain _id
// condition is served by GetItem when the primary key can be derived from
// the id alone; otherwise the collection is read through the GSI or a table
// scan and filtered client-side.
func (m *Model) load(ctx context.Context, where storagemodels.Document) ([]storagemodels.Document, error) {
	indexMap, err := indexMapFor(m.collection)
	if err != nil {
		return nil, err
	}

	var items []map[string]types.AttributeValue
	if id, ok := idLookup(where); ok {
		key, resolved, err := keyFor(indexMap, storagemodels.Document{storagemodels.IDField: id})
		if err != nil {
			return nil, err
		}
		if resolved {
			out, err := m.db.client.GetItem(ctx, &sdk.GetItemInput{
				TableName: &m.db.tableName,
				Key:       key,
			})
			if err != nil {
				return nil, fmt.Errorf("GetItem failed: %w", err)
			}
			if out.Item != nil && entityType(out.Item) == m.collection {
				items = append(items, out.Item)
			}
			return m.decode(indexMap, items, where)
		}
	}

	if input := m.collectionQuery(indexMap, where); input != nil {
		items, err = m.db.queryAll(ctx, input)
	} else {
		items, err = m.db.scanAll(ctx, m.scanInput())
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", m.collection, err)
	}
	return m.decode(indexMap, items, where)
}

func (m *Model) scanInput() *sdk.ScanInput {
	return &sdk.ScanInput{
		TableName:                &m.db.tableName,
		FilterExpression:         stringPtr("#et = :et"),
		ExpressionAttributeNames: map[string]string{"#et": EntityTypeAttribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":et": &types.AttributeValueMemberS{Value: m.collection},
		},
	}
}

func (m *Model) decode(indexMap map[string]string, items []map[string]types.AttributeValue, where storagemodels.Document) ([]storagemodels.Document, error) {
	docs := make([]storagemodels.Document, 0, len(items))
	for _, item := range items {
		doc, err := fromItem(indexMap, item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return memquery.FilterDocuments(docs, where)
}

func stringPtr(s string) *string {
	return &s
}

func (m *Model) Find(where storagemodels.Document) datastore.Query {
	return &query{model: m, where: where}
}

func (m *Model) FindOne(where storagemodels.Document) datastore.SingleQuery {
	return &singleQuery{query: query{model: m, where: where}}
}

func (m *Model) FindByID(id any) datastore.SingleQuery {
	return &singleQuery{query: query{model: m, where: storagemodels.Document{storagemodels.IDField: id}}}
}

func (m *Model) CountDocuments(where storagemodels.Document) datastore.CountQuery {
	return &countQuery{model: m, where: where}
}

// Exists reports whether any document matches where
func (m *Model) Exists(ctx context.Context, where storagemodels.Document) (bool, error) {
	docs, err := m.load(ctx, where)
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// Create writes documents one by one, generating ids where missing. A
// document whose key is taken fails with an AlreadyExistsError; documents
// written before it are kept.
func (m *Model) Create(ctx context.Context, docs []storagemodels.Document, opts storagemodels.Options) ([]storagemodels.Document, error) {
	indexMap, err := indexMapFor(m.collection)
	if err != nil {
		return nil, err
	}

	created := make([]storagemodels.Document, 0, len(docs))
	for _, d := range docs {
		d = d.Clone()
		if d == nil {
			d = storagemodels.Document{}
		}
		if d.ID() == nil {
			d[storagemodels.IDField] = uuid.NewString()
		}
		if err := m.put(ctx, indexMap, d, true); err != nil {
			return nil, err
		}
		created = append(created, d)
	}
	return created, nil
}

func (m *Model) FindByIDAndUpdate(ctx context.Context, id any, update storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return m.modifyOne(ctx, storagemodels.Document{storagemodels.IDField: id}, opts, func(d storagemodels.Document) (storagemodels.Document, bool, error) {
		return memquery.ApplyUpdate(d, update)
	})
}

func (m *Model) FindOneAndUpdate(ctx context.Context, where, update storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return m.modifyOne(ctx, where, opts, func(d storagemodels.Document) (storagemodels.Document, bool, error) {
		return memquery.ApplyUpdate(d, update)
	})
}

func (m *Model) FindOneAndReplace(ctx context.Context, where, replacement storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return m.modifyOne(ctx, where, opts, func(d storagemodels.Document) (storagemodels.Document, bool, error) {
		return memquery.Replace(d, replacement), true, nil
	})
}

// modifyOne applies change to the first document matching where, upserting
// when requested. It returns the document before the change unless
// opts.ReturnNew is set. Unchanged documents are not written back.
func (m *Model) modifyOne(ctx context.Context, where storagemodels.Document, opts storagemodels.Options, change func(storagemodels.Document) (storagemodels.Document, bool, error)) (storagemodels.Document, error) {
	indexMap, err := indexMapFor(m.collection)
	if err != nil {
		return nil, err
	}
	docs, err := m.load(ctx, where)
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		if !opts.Upsert {
			return nil, nil
		}
		seed := memquery.SeedFromFilter(where)
		if seed.ID() == nil {
			seed[storagemodels.IDField] = uuid.NewString()
		}
		next, _, err := change(seed)
		if err != nil {
			return nil, err
		}
		if err := m.put(ctx, indexMap, next, true); err != nil {
			return nil, err
		}
		if opts.ReturnNew {
			return next, nil
		}
		return nil, nil
	}

	prev := docs[0]
	next, changed, err := change(prev)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := m.replace(ctx, indexMap, prev, next); err != nil {
			return nil, err
		}
	}
	if opts.ReturnNew {
		return next, nil
	}
	return prev, nil
}

func (m *Model) FindByIDAndDelete(ctx context.Context, id any, opts storagemodels.Options) (storagemodels.Document, error) {
	removed, err := m.remove(ctx, storagemodels.Document{storagemodels.IDField: id}, true)
	if err != nil || len(removed) == 0 {
		return nil, err
	}
	return removed[0], nil
}

func (m *Model) FindOneAndDelete(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	removed, err := m.remove(ctx, where, true)
	if err != nil || len(removed) == 0 {
		return nil, err
	}
	return removed[0], nil
}

func (m *Model) DeleteOne(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error) {
	removed, err := m.remove(ctx, where, true)
	if err != nil {
		return nil, err
	}
	return &storagemodels.DeleteResult{DeletedCount: int64(len(removed))}, nil
}

func (m *Model) DeleteMany(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error) {
	removed, err := m.remove(ctx, where, false)
	if err != nil {
		return nil, err
	}
	return &storagemodels.DeleteResult{DeletedCount: int64(len(removed))}, nil
}

func (m *Model) remove(ctx context.Context, where storagemodels.Document, firstOnly bool) ([]storagemodels.Document, error) {
	indexMap, err := indexMapFor(m.collection)
	if err != nil {
		return nil, err
	}
	docs, err := m.load(ctx, where)
	if err != nil {
		return nil, err
	}
	if firstOnly && len(docs) > 1 {
		docs = docs[:1]
	}

	removed := make([]storagemodels.Document, 0, len(docs))
	for _, d := range docs {
		key, ok, err := keyFor(indexMap, d)
		if err != nil {
			return removed, err
		}
		if !ok {
			return removed, fmt.Errorf("cannot derive key of %s %v", m.collection, d.ID())
		}
		if err := m.deleteKey(ctx, key); err != nil {
			return removed, err
		}
		removed = append(removed, d)
	}
	return removed, nil
}

func (m *Model) UpdateMany(ctx context.Context, where, update storagemodels.Document, opts storagemodels.Options) (*storagemodels.UpdateResult, error) {
	indexMap, err := indexMapFor(m.collection)
	if err != nil {
		return nil, err
	}
	docs, err := m.load(ctx, where)
	if err != nil {
		return nil, err
	}

	res := &storagemodels.UpdateResult{MatchedCount: int64(len(docs))}
	if len(docs) == 0 && opts.Upsert {
		seed := memquery.SeedFromFilter(where)
		if seed.ID() == nil {
			seed[storagemodels.IDField] = uuid.NewString()
		}
		next, _, err := memquery.ApplyUpdate(seed, update)
		if err != nil {
			return nil, err
		}
		if err := m.put(ctx, indexMap, next, true); err != nil {
			return nil, err
		}
		res.UpsertedID = next.ID()
		return res, nil
	}

	for _, d := range docs {
		next, changed, err := memquery.ApplyUpdate(d, update)
		if err != nil {
			return nil, err
		}
		if !changed {
			continue
		}
		if err := m.replace(ctx, indexMap, d, next); err != nil {
			return nil, err
		}
		res.ModifiedCount++
	}
	return res, nil
}
