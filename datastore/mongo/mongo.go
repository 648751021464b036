/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/suparena/recordgateway/datastore"
	"github.com/suparena/recordgateway/datastore/memquery"
	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/logger"
	"github.com/suparena/recordgateway/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database is a connected MongoDB database
type Database struct {
	client *driver.Client
	db     *driver.Database
	log    logger.Logger
}

// Option configures a Database
type Option func(*Database)

// WithLogger sets the logger used for connection events
func WithLogger(l logger.Logger) Option {
	return func(d *Database) {
		d.log = l
	}
}

// Connect dials uri, verifies the connection with a ping and selects database.
func Connect(ctx context.Context, uri, database string, opts ...Option) (*Database, error) {
	d := &Database{log: logger.GetGlobalLogger()}
	for _, opt := range opts {
		opt(d)
	}

	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	d.client = client
	d.db = client.Database(database)
	d.log.Info("connected to MongoDB database %s", database)
	return d, nil
}

// Close disconnects the client
func (d *Database) Close(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	return d.client.Disconnect(ctx)
}

// Model returns a handle on the named collection
func (d *Database) Model(collection string) *Model {
	return &Model{
		db:   d,
		name: collection,
		coll: d.db.Collection(collection),
		refs: make(map[string]string),
	}
}

// Drop removes the whole database. Used by tests.
func (d *Database) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

// Model is the datastore.Model of one MongoDB collection
type Model struct {
	db   *Database
	name string
	coll *driver.Collection
	refs map[string]string
}

var _ datastore.Model = (*Model)(nil)

// WithRef declares that the references stored under path point into collection
func (m *Model) WithRef(path, collection string) *Model {
	m.refs[path] = collection
	return m
}

func (m *Model) Find(where storagemodels.Document) datastore.Query {
	return &query{model: m, where: where}
}

func (m *Model) FindOne(where storagemodels.Document) datastore.SingleQuery {
	return &singleQuery{model: m, where: where}
}

func (m *Model) FindByID(id any) datastore.SingleQuery {
	return &singleQuery{model: m, where: storagemodels.Document{storagemodels.IDField: id}}
}

func (m *Model) CountDocuments(where storagemodels.Document) datastore.CountQuery {
	return &countQuery{model: m, where: where}
}

// Exists reports whether any document matches where
func (m *Model) Exists(ctx context.Context, where storagemodels.Document) (bool, error) {
	n, err := m.coll.CountDocuments(ctx, toFilter(where), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("exists on %s: %w", m.name, err)
	}
	return n > 0, nil
}

// Create inserts docs in order. Documents without an _id get a new ObjectID.
func (m *Model) Create(ctx context.Context, docs []storagemodels.Document, opts storagemodels.Options) ([]storagemodels.Document, error) {
	if len(docs) == 0 {
		return []storagemodels.Document{}, nil
	}

	batch := make([]any, 0, len(docs))
	for _, d := range docs {
		doc := toBSON(d)
		if id, ok := doc[storagemodels.IDField]; !ok || id == nil {
			doc[storagemodels.IDField] = primitive.NewObjectID()
		}
		batch = append(batch, doc)
	}

	if _, err := m.coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true)); err != nil {
		if driver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", errors.NewAlreadyExistsError(m.name, "_id"), err)
		}
		return nil, fmt.Errorf("insert into %s: %w", m.name, err)
	}

	created := make([]storagemodels.Document, 0, len(batch))
	for _, doc := range batch {
		created = append(created, fromBSON(doc.(bson.M)))
	}
	return created, nil
}

func (m *Model) FindByIDAndUpdate(ctx context.Context, id any, update storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return m.FindOneAndUpdate(ctx, storagemodels.Document{storagemodels.IDField: id}, update, opts)
}

// FindOneAndUpdate updates the first document matching where. Plain update
// documents are applied as $set; an update with nothing to set reads the
// document instead and never upserts.
func (m *Model) FindOneAndUpdate(ctx context.Context, where, update storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	normalized := memquery.NormalizeUpdate(update)
	if isEmptyUpdate(normalized) {
		return m.FindOne(where).Exec(ctx)
	}

	res := m.coll.FindOneAndUpdate(ctx, toFilter(where), toBSON(normalized), findOneAndUpdateOptions(opts))
	return decodeSingle(res, m.name)
}

// FindOneAndReplace replaces the first document matching where with replacement.
func (m *Model) FindOneAndReplace(ctx context.Context, where, replacement storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	doc := toBSON(replacement)
	delete(doc, storagemodels.IDField)

	res := m.coll.FindOneAndReplace(ctx, toFilter(where), doc, findOneAndReplaceOptions(opts))
	return decodeSingle(res, m.name)
}

func (m *Model) FindByIDAndDelete(ctx context.Context, id any, opts storagemodels.Options) (storagemodels.Document, error) {
	return m.FindOneAndDelete(ctx, storagemodels.Document{storagemodels.IDField: id}, opts)
}

func (m *Model) FindOneAndDelete(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	res := m.coll.FindOneAndDelete(ctx, toFilter(where))
	return decodeSingle(res, m.name)
}

func (m *Model) DeleteOne(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error) {
	res, err := m.coll.DeleteOne(ctx, toFilter(where))
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", m.name, err)
	}
	return &storagemodels.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (m *Model) DeleteMany(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error) {
	res, err := m.coll.DeleteMany(ctx, toFilter(where))
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", m.name, err)
	}
	return &storagemodels.DeleteResult{DeletedCount: res.DeletedCount}, nil
}

func (m *Model) UpdateMany(ctx context.Context, where, update storagemodels.Document, opts storagemodels.Options) (*storagemodels.UpdateResult, error) {
	normalized := memquery.NormalizeUpdate(update)
	if isEmptyUpdate(normalized) {
		n, err := m.coll.CountDocuments(ctx, toFilter(where))
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", m.name, err)
		}
		return &storagemodels.UpdateResult{MatchedCount: n}, nil
	}

	res, err := m.coll.UpdateMany(ctx, toFilter(where), toBSON(normalized), options.Update().SetUpsert(opts.Upsert))
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", m.name, err)
	}
	return &storagemodels.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedID:    fromValue(res.UpsertedID),
	}, nil
}

func decodeSingle(res *driver.SingleResult, collection string) (storagemodels.Document, error) {
	var raw bson.M
	if err := res.Decode(&raw); err != nil {
		if stderrors.Is(err, driver.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", collection, err)
	}
	return fromBSON(raw), nil
}

func returnDocument(opts storagemodels.Options) options.ReturnDocument {
	if opts.ReturnNew {
		return options.After
	}
	return options.Before
}

func findOneAndUpdateOptions(opts storagemodels.Options) *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().
		SetReturnDocument(returnDocument(opts)).
		SetUpsert(opts.Upsert)
}

func findOneAndReplaceOptions(opts storagemodels.Options) *options.FindOneAndReplaceOptions {
	return options.FindOneAndReplace().
		SetReturnDocument(returnDocument(opts)).
		SetUpsert(opts.Upsert)
}
