/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.Model for testing
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/suparena/recordgateway/datastore"
	"github.com/suparena/recordgateway/datastore/memquery"
	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/storagemodels"
)

// Call records one engine operation, for assertions in tests.
type Call struct {
	Collection  string
	Op          string
	Where       storagemodels.Document
	Sort        []storagemodels.SortField
	Skip        int64
	Limit       int64
	Populations []storagemodels.Population
}

// Database is an in-memory document store holding any number of collections.
type Database struct {
	mu          sync.RWMutex
	collections map[string][]storagemodels.Document
	calls       []Call
}

// New creates an empty in-memory database
func New() *Database {
	return &Database{
		collections: make(map[string][]storagemodels.Document),
	}
}

// Seed inserts documents directly, bypassing any model. Documents without
// an _id get a generated one.
func (db *Database) Seed(collection string, docs ...storagemodels.Document) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, d := range docs {
		d = deepCopy(d)
		if d.ID() == nil {
			d[storagemodels.IDField] = uuid.NewString()
		}
		db.collections[collection] = append(db.collections[collection], d)
	}
}

// Documents returns a copy of the stored documents of a collection
func (db *Database) Documents(collection string) []storagemodels.Document {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return cloneAll(db.collections[collection])
}

// Count returns the number of stored documents in a collection
func (db *Database) Count(collection string) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.collections[collection])
}

// Calls returns the operations executed so far
func (db *Database) Calls() []Call {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]Call, len(db.calls))
	copy(out, db.calls)
	return out
}

// CallsFor returns the recorded operations named op
func (db *Database) CallsFor(op string) []Call {
	var out []Call
	for _, c := range db.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Clear removes all data and recorded calls
func (db *Database) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.collections = make(map[string][]storagemodels.Document)
	db.calls = nil
}

func (db *Database) record(c Call) {
	db.calls = append(db.calls, c)
}

// Model is the datastore.Model of one collection
type Model struct {
	db          *Database
	collection  string
	refs        map[string]string
	findError   error
	createError error
	updateError error
	deleteError error
}

var _ datastore.Model = (*Model)(nil)

// Model returns a handle on the named collection
func (db *Database) Model(collection string) *Model {
	return &Model{
		db:         db,
		collection: collection,
		refs:       make(map[string]string),
	}
}

// WithRef declares that the references stored under path point into collection
func (m *Model) WithRef(path, collection string) *Model {
	m.refs[path] = collection
	return m
}

// WithFindError makes read operations return an error
func (m *Model) WithFindError(err error) *Model {
	m.findError = err
	return m
}

// WithCreateError makes Create return an error
func (m *Model) WithCreateError(err error) *Model {
	m.createError = err
	return m
}

// WithUpdateError makes update and replace operations return an error
func (m *Model) WithUpdateError(err error) *Model {
	m.updateError = err
	return m
}

// WithDeleteError makes delete operations return an error
func (m *Model) WithDeleteError(err error) *Model {
	m.deleteError = err
	return m
}

// Collection returns the collection name
func (m *Model) Collection() string {
	return m.collection
}

// matching returns the indexes of stored documents matching where, in storage order.
// The caller must hold the database lock.
func (m *Model) matching(where storagemodels.Document) ([]int, error) {
	var idx []int
	for i, d := range m.db.collections[m.collection] {
		ok, err := memquery.Match(d, where)
		if err != nil {
			return nil, err
		}
		if ok {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

func (m *Model) Find(where storagemodels.Document) datastore.Query {
	return &query{model: m, where: where}
}

func (m *Model) FindOne(where storagemodels.Document) datastore.SingleQuery {
	return &singleQuery{query: query{model: m, where: where}, op: "findOne"}
}

func (m *Model) FindByID(id any) datastore.SingleQuery {
	return &singleQuery{query: query{model: m, where: storagemodels.Document{storagemodels.IDField: id}}, op: "findById"}
}

func (m *Model) CountDocuments(where storagemodels.Document) datastore.CountQuery {
	return &countQuery{model: m, where: where}
}

// Exists reports whether any document matches where
func (m *Model) Exists(ctx context.Context, where storagemodels.Document) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.record(Call{Collection: m.collection, Op: "exists", Where: where})
	if m.findError != nil {
		return false, m.findError
	}
	idx, err := m.matching(where)
	if err != nil {
		return false, err
	}
	return len(idx) > 0, nil
}

// Create inserts documents, generating ids where missing. Nothing is
// inserted when any id is already taken.
func (m *Model) Create(ctx context.Context, docs []storagemodels.Document, opts storagemodels.Options) ([]storagemodels.Document, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.record(Call{Collection: m.collection, Op: "create"})
	if m.createError != nil {
		return nil, m.createError
	}

	prepared := make([]storagemodels.Document, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		d = deepCopy(d)
		if d == nil {
			d = storagemodels.Document{}
		}
		if d.ID() == nil {
			d[storagemodels.IDField] = uuid.NewString()
		}
		key := fmt.Sprint(d.ID())
		idx, _ := m.matching(storagemodels.Document{storagemodels.IDField: d.ID()})
		if len(idx) > 0 || seen[key] {
			return nil, errors.NewAlreadyExistsError(m.collection, key)
		}
		seen[key] = true
		prepared = append(prepared, d)
	}
	m.db.collections[m.collection] = append(m.db.collections[m.collection], prepared...)
	return cloneAll(prepared), nil
}

func (m *Model) FindByIDAndUpdate(ctx context.Context, id any, update storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return m.modifyOne(storagemodels.Document{storagemodels.IDField: id}, "findByIdAndUpdate", opts, func(d storagemodels.Document) (storagemodels.Document, error) {
		out, _, err := memquery.ApplyUpdate(d, update)
		return out, err
	})
}

func (m *Model) FindOneAndUpdate(ctx context.Context, where, update storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return m.modifyOne(where, "findOneAndUpdate", opts, func(d storagemodels.Document) (storagemodels.Document, error) {
		out, _, err := memquery.ApplyUpdate(d, update)
		return out, err
	})
}

func (m *Model) FindOneAndReplace(ctx context.Context, where, replacement storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	return m.modifyOne(where, "findOneAndReplace", opts, func(d storagemodels.Document) (storagemodels.Document, error) {
		return memquery.Replace(d, replacement), nil
	})
}

// modifyOne applies change to the first document matching where, upserting
// when requested. It returns the document before the change unless
// opts.ReturnNew is set.
func (m *Model) modifyOne(where storagemodels.Document, op string, opts storagemodels.Options, change func(storagemodels.Document) (storagemodels.Document, error)) (storagemodels.Document, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.record(Call{Collection: m.collection, Op: op, Where: where})
	if m.updateError != nil {
		return nil, m.updateError
	}

	idx, err := m.matching(where)
	if err != nil {
		return nil, err
	}
	if len(idx) == 0 {
		if !opts.Upsert {
			return nil, nil
		}
		seed := memquery.SeedFromFilter(where)
		if seed.ID() == nil {
			seed[storagemodels.IDField] = uuid.NewString()
		}
		next, err := change(seed)
		if err != nil {
			return nil, err
		}
		m.db.collections[m.collection] = append(m.db.collections[m.collection], next)
		if opts.ReturnNew {
			return deepCopy(next), nil
		}
		return nil, nil
	}

	coll := m.db.collections[m.collection]
	prev := coll[idx[0]]
	next, err := change(prev)
	if err != nil {
		return nil, err
	}
	coll[idx[0]] = next
	if opts.ReturnNew {
		return deepCopy(next), nil
	}
	return deepCopy(prev), nil
}

func (m *Model) FindByIDAndDelete(ctx context.Context, id any, opts storagemodels.Options) (storagemodels.Document, error) {
	removed, err := m.remove(storagemodels.Document{storagemodels.IDField: id}, "findByIdAndDelete", true)
	if err != nil || len(removed) == 0 {
		return nil, err
	}
	return removed[0], nil
}

func (m *Model) FindOneAndDelete(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (storagemodels.Document, error) {
	removed, err := m.remove(where, "findOneAndDelete", true)
	if err != nil || len(removed) == 0 {
		return nil, err
	}
	return removed[0], nil
}

func (m *Model) DeleteOne(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error) {
	removed, err := m.remove(where, "deleteOne", true)
	if err != nil {
		return nil, err
	}
	return &storagemodels.DeleteResult{DeletedCount: int64(len(removed))}, nil
}

func (m *Model) DeleteMany(ctx context.Context, where storagemodels.Document, opts storagemodels.Options) (*storagemodels.DeleteResult, error) {
	removed, err := m.remove(where, "deleteMany", false)
	if err != nil {
		return nil, err
	}
	return &storagemodels.DeleteResult{DeletedCount: int64(len(removed))}, nil
}

func (m *Model) remove(where storagemodels.Document, op string, firstOnly bool) ([]storagemodels.Document, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.record(Call{Collection: m.collection, Op: op, Where: where})
	if m.deleteError != nil {
		return nil, m.deleteError
	}

	idx, err := m.matching(where)
	if err != nil {
		return nil, err
	}
	if firstOnly && len(idx) > 1 {
		idx = idx[:1]
	}
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}

	coll := m.db.collections[m.collection]
	kept := make([]storagemodels.Document, 0, len(coll)-len(idx))
	removed := make([]storagemodels.Document, 0, len(idx))
	for i, d := range coll {
		if drop[i] {
			removed = append(removed, d)
			continue
		}
		kept = append(kept, d)
	}
	m.db.collections[m.collection] = kept
	return removed, nil
}

func (m *Model) UpdateMany(ctx context.Context, where, update storagemodels.Document, opts storagemodels.Options) (*storagemodels.UpdateResult, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.record(Call{Collection: m.collection, Op: "updateMany", Where: where})
	if m.updateError != nil {
		return nil, m.updateError
	}

	idx, err := m.matching(where)
	if err != nil {
		return nil, err
	}
	res := &storagemodels.UpdateResult{MatchedCount: int64(len(idx))}
	if len(idx) == 0 && opts.Upsert {
		seed := memquery.SeedFromFilter(where)
		if seed.ID() == nil {
			seed[storagemodels.IDField] = uuid.NewString()
		}
		next, _, err := memquery.ApplyUpdate(seed, update)
		if err != nil {
			return nil, err
		}
		m.db.collections[m.collection] = append(m.db.collections[m.collection], next)
		res.UpsertedID = next.ID()
		return res, nil
	}

	coll := m.db.collections[m.collection]
	for _, i := range idx {
		next, changed, err := memquery.ApplyUpdate(coll[i], update)
		if err != nil {
			return nil, err
		}
		coll[i] = next
		if changed {
			res.ModifiedCount++
		}
	}
	return res, nil
}

// populate replaces references in docs with the referenced documents.
// The caller must hold the database lock.
func (m *Model) populate(docs []storagemodels.Document, pops []storagemodels.Population) {
	for _, p := range pops {
		from := p.From
		if from == "" {
			from = m.refs[p.Path]
		}
		if from == "" {
			continue
		}
		wanted := map[string]bool{}
		for _, ref := range memquery.CollectRefs(docs, p.Path) {
			wanted[memquery.RefKey(ref)] = true
		}
		byID := make(map[string]storagemodels.Document, len(wanted))
		for _, r := range m.db.collections[from] {
			if key := memquery.RefKey(r.ID()); wanted[key] {
				byID[key] = memquery.Project(deepCopy(r), p.Select)
			}
		}
		memquery.ReplaceRefs(docs, p.Path, byID)
	}
}

func deepCopy(d storagemodels.Document) storagemodels.Document {
	if d == nil {
		return nil
	}
	out := make(storagemodels.Document, len(d))
	for k, v := range d {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case storagemodels.Document:
		return deepCopy(t)
	case map[string]any:
		return map[string]any(deepCopy(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneAll(docs []storagemodels.Document) []storagemodels.Document {
	out := make([]storagemodels.Document, len(docs))
	for i, d := range docs {
		out[i] = deepCopy(d)
	}
	return out
}
