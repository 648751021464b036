/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/logger"
	"github.com/suparena/recordgateway/registry"
	"github.com/suparena/recordgateway/storagemodels"
)

func init() {
	registry.RegisterIndexMap("users", map[string]string{
		"PK": "USER#{_id}",
		"SK": "PROFILE",
	})
	registry.RegisterIndexMap("posts", map[string]string{
		"PK":     "POST#{_id}",
		"SK":     "METADATA",
		"GSI1PK": "POST",
		"GSI1SK": "{createdAt}",
	})
	registry.RegisterIndexMap("members", map[string]string{
		"PK": "ORG#{org}",
		"SK": "MEMBER#{_id}",
	})
}

func newTestDB(opts ...Option) (*Database, *fakeClient) {
	fc := newFakeClient()
	base := []Option{
		WithLogger(logger.NewNullLogger()),
		WithScanOptions(storagemodels.WithRetryBackoff(time.Millisecond)),
	}
	return New(fc, "test-table", append(base, opts...)...), fc
}

func seedUsers(t *testing.T, m *Model) {
	t.Helper()
	_, err := m.Create(context.Background(), []D{
		{"_id": "u1", "name": "Ada", "age": 36},
		{"_id": "u2", "name": "Grace", "age": 45},
		{"_id": "u3", "name": "Linus", "age": 28},
	}, storagemodels.Options{})
	require.NoError(t, err)
}

func names(docs []D) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i], _ = d["name"].(string)
	}
	return out
}

func TestModelFind(t *testing.T) {
	ctx := context.Background()
	db, fc := newTestDB()
	users := db.Model("users")
	seedUsers(t, users)
	assert.Equal(t, 3, fc.size())

	t.Run("FindByIDUsesGetItem", func(t *testing.T) {
		fc.resetCalls()
		doc, err := users.FindByID("u1").Exec(ctx)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "Ada", doc["name"])
		assert.EqualValues(t, 36, doc["age"])
		assert.NotContains(t, doc, "PK")
		assert.NotContains(t, doc, EntityTypeAttribute)
		assert.Equal(t, 1, fc.count("GetItem"))
		assert.Equal(t, 0, fc.count("Scan"))

		missing, err := users.FindByID("nope").Exec(ctx)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("FilterSortPaginate", func(t *testing.T) {
		fc.resetCalls()
		docs, err := users.Find(D{"age": D{"$gt": 30}}).Sort(storagemodels.ParseSort("-age")).Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Grace", "Ada"}, names(docs))
		assert.Equal(t, 1, fc.count("Scan"))

		docs, err = users.Find(nil).Sort(storagemodels.ParseSort("age")).Skip(1).Limit(1).Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Ada"}, names(docs))
	})

	t.Run("FindOne", func(t *testing.T) {
		doc, err := users.FindOne(D{"name": "Linus"}).Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u3", doc.ID())

		doc, err = users.FindOne(D{"name": "Zed"}).Exec(ctx)
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("CountAndExists", func(t *testing.T) {
		n, err := users.CountDocuments(nil).Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = users.CountDocuments(nil).Skip(1).Limit(1).Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		ok, err := users.Exists(ctx, D{"name": "Ada"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = users.Exists(ctx, D{"name": "Zed"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CollectionsShareTheTable", func(t *testing.T) {
		members := db.Model("members")
		_, err := members.Create(ctx, []D{{"_id": "m1", "org": "acme", "name": "Ada"}}, storagemodels.Options{})
		require.NoError(t, err)

		docs, err := users.Find(D{"name": "Ada"}).Exec(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}

func TestModelCreate(t *testing.T) {
	ctx := context.Background()
	db, fc := newTestDB()
	users := db.Model("users")

	created, err := users.Create(ctx, []D{{"name": "Anon"}}, storagemodels.Options{})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.NotEmpty(t, created[0].ID())

	_, err = users.Create(ctx, []D{{"_id": "u1"}}, storagemodels.Options{})
	require.NoError(t, err)
	_, err = users.Create(ctx, []D{{"_id": "u1", "name": "again"}}, storagemodels.Options{})
	assert.True(t, errors.IsAlreadyExists(err))
	assert.Equal(t, 2, fc.size())

	_, err = db.Model("members").Create(ctx, []D{{"_id": "m9"}}, storagemodels.Options{})
	assert.True(t, errors.IsValidationError(err), "org is needed for the key")

	_, err = db.Model("ghosts").Find(nil).Exec(ctx)
	assert.True(t, stderrors.Is(err, errors.ErrNoIndexMap))
}

func TestModelUpdate(t *testing.T) {
	ctx := context.Background()
	db, fc := newTestDB()
	users := db.Model("users")
	seedUsers(t, users)

	t.Run("FindByIDAndUpdate", func(t *testing.T) {
		prev, err := users.FindByIDAndUpdate(ctx, "u1", D{"$inc": D{"age": 1}}, storagemodels.Options{})
		require.NoError(t, err)
		assert.EqualValues(t, 36, prev["age"])

		doc, err := users.FindByID("u1").Exec(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 37, doc["age"])
	})

	t.Run("UnchangedIsNotWritten", func(t *testing.T) {
		fc.resetCalls()
		doc, err := users.FindOneAndUpdate(ctx, D{"name": "Ada"}, D{"name": "Ada"}, storagemodels.Options{ReturnNew: true})
		require.NoError(t, err)
		assert.Equal(t, "u1", doc.ID())
		assert.Equal(t, 0, fc.count("PutItem"))
	})

	t.Run("NoMatch", func(t *testing.T) {
		doc, err := users.FindOneAndUpdate(ctx, D{"name": "Zed"}, D{"age": 1}, storagemodels.Options{})
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Upsert", func(t *testing.T) {
		doc, err := users.FindOneAndUpdate(ctx, D{"_id": "u7"}, D{"name": "New"}, storagemodels.Options{Upsert: true, ReturnNew: true})
		require.NoError(t, err)
		assert.Equal(t, D{"_id": "u7", "name": "New"}, doc)

		stored, err := users.FindByID("u7").Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, "New", stored["name"])
	})

	t.Run("FindOneAndReplace", func(t *testing.T) {
		doc, err := users.FindOneAndReplace(ctx, D{"name": "Grace"}, D{"name": "Grace Hopper"}, storagemodels.Options{ReturnNew: true})
		require.NoError(t, err)
		assert.Equal(t, D{"_id": "u2", "name": "Grace Hopper"}, doc)

		stored, err := users.FindByID("u2").Exec(ctx)
		require.NoError(t, err)
		assert.NotContains(t, stored, "age")
	})

	t.Run("UpdateMany", func(t *testing.T) {
		res, err := users.UpdateMany(ctx, D{"age": D{"$gte": 30}}, D{"$set": D{"senior": true}}, storagemodels.Options{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.MatchedCount)
		assert.Equal(t, int64(1), res.ModifiedCount)

		res, err = users.UpdateMany(ctx, D{"age": D{"$gte": 30}}, D{"$set": D{"senior": true}}, storagemodels.Options{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.MatchedCount)
		assert.Equal(t, int64(0), res.ModifiedCount)

		res, err = users.UpdateMany(ctx, D{"name": "Zed"}, D{"$set": D{"age": 1}}, storagemodels.Options{Upsert: true})
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.MatchedCount)
		require.NotNil(t, res.UpsertedID)

		doc, err := users.FindByID(res.UpsertedID).Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Zed", doc["name"])
	})

	t.Run("KeyMove", func(t *testing.T) {
		members := db.Model("members")
		_, err := members.Create(ctx, []D{{"_id": "m1", "org": "acme"}}, storagemodels.Options{})
		require.NoError(t, err)
		before := fc.size()

		fc.resetCalls()
		doc, err := members.FindByIDAndUpdate(ctx, "m1", D{"org": "globex"}, storagemodels.Options{ReturnNew: true})
		require.NoError(t, err)
		assert.Equal(t, "globex", doc["org"])
		assert.Equal(t, 1, fc.count("Scan"), "the key is not derivable from the id")
		assert.Equal(t, 1, fc.count("DeleteItem"))
		assert.Equal(t, before, fc.size())
		assert.Contains(t, fc.items, "ORG#globex|MEMBER#m1")
		assert.NotContains(t, fc.items, "ORG#acme|MEMBER#m1")
	})
}

func TestModelDelete(t *testing.T) {
	ctx := context.Background()
	db, fc := newTestDB()
	users := db.Model("users")
	seedUsers(t, users)

	doc, err := users.FindByIDAndDelete(ctx, "u1", storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc["name"])

	doc, err = users.FindByIDAndDelete(ctx, "u1", storagemodels.Options{})
	require.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = users.FindOneAndDelete(ctx, D{"name": "Linus"}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, "u3", doc.ID())

	seedMore := []D{{"_id": "u4", "age": 1}, {"_id": "u5", "age": 2}}
	_, err = users.Create(ctx, seedMore, storagemodels.Options{})
	require.NoError(t, err)

	res, err := users.DeleteOne(ctx, D{"age": D{"$lt": 10}}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)

	res, err = users.DeleteMany(ctx, nil, storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.DeletedCount)
	assert.Equal(t, 0, fc.size())

	_, err = users.Create(ctx, []D{{"_id": "u6"}}, storagemodels.Options{})
	require.NoError(t, err)
	fc.failNext("DeleteItem", stderrors.New("boom"))
	_, err = users.DeleteMany(ctx, nil, storagemodels.Options{})
	assert.ErrorContains(t, err, "boom")
}

func TestModelGSIAndPopulate(t *testing.T) {
	ctx := context.Background()
	db, fc := newTestDB(WithGSI(DefaultGSIConfigs["GSI1"]))
	users := db.Model("users")
	posts := db.Model("posts").WithRef("author", "users")
	seedUsers(t, users)

	_, err := posts.Create(ctx, []D{
		{"_id": "p3", "title": "third", "author": "u1", "createdAt": "2025-03-01T00:00:00Z"},
		{"_id": "p1", "title": "first", "author": "u1", "createdAt": "2025-01-01T00:00:00Z"},
		{"_id": "p2", "title": "second", "author": "u2", "createdAt": "2025-02-01T00:00:00Z"},
	}, storagemodels.Options{})
	require.NoError(t, err)

	t.Run("ListsThroughTheIndex", func(t *testing.T) {
		fc.resetCalls()
		docs, err := posts.Find(D{"createdAt": D{"$gte": "2025-02-01T00:00:00Z"}}).Exec(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "p2", docs[0].ID())
		assert.Equal(t, "p3", docs[1].ID())
		assert.Equal(t, 1, fc.count("Query"))
		assert.Equal(t, 0, fc.count("Scan"))
	})

	t.Run("PopulateWithBatchGet", func(t *testing.T) {
		fc.resetCalls()
		docs, err := posts.Find(nil).
			Sort(storagemodels.ParseSort("createdAt")).
			Populate(storagemodels.Population{Path: "author", Select: []string{"name"}}).
			Exec(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, D{"_id": "u1", "name": "Ada"}, docs[0]["author"])
		assert.Equal(t, D{"_id": "u2", "name": "Grace"}, docs[1]["author"])
		assert.Equal(t, 1, fc.count("BatchGetItem"))
	})

	t.Run("UnprocessedKeysAreRetried", func(t *testing.T) {
		fc.resetCalls()
		fc.holdBack = true
		docs, err := posts.Find(nil).Populate(storagemodels.Population{Path: "author"}).Exec(ctx)
		require.NoError(t, err)
		for _, d := range docs {
			assert.IsType(t, D{}, d["author"])
		}
		assert.Equal(t, 2, fc.count("BatchGetItem"))
	})

	t.Run("DanglingReference", func(t *testing.T) {
		_, err := posts.Create(ctx, []D{{"_id": "p4", "author": "ghost", "createdAt": "2025-04-01T00:00:00Z"}}, storagemodels.Options{})
		require.NoError(t, err)
		doc, err := posts.FindByID("p4").Populate(storagemodels.Population{Path: "author"}).Exec(ctx)
		require.NoError(t, err)
		assert.Nil(t, doc["author"])
	})

	t.Run("FallbackLoad", func(t *testing.T) {
		members := db.Model("members")
		_, err := members.Create(ctx, []D{{"_id": "m1", "org": "acme", "role": "lead"}}, storagemodels.Options{})
		require.NoError(t, err)
		_, err = users.FindByIDAndUpdate(ctx, "u3", D{"memberships": []any{"m1", "m2"}}, storagemodels.Options{})
		require.NoError(t, err)

		fc.resetCalls()
		doc, err := users.FindByID("u3").Populate(storagemodels.Population{Path: "memberships", From: "members"}).Exec(ctx)
		require.NoError(t, err)
		require.Len(t, doc["memberships"], 1)
		assert.Equal(t, "lead", doc["memberships"].([]any)[0].(D)["role"])
		assert.Equal(t, 0, fc.count("BatchGetItem"))
		assert.Equal(t, 1, fc.count("Scan"))
	})

	t.Run("UnknownReferenceIsIgnored", func(t *testing.T) {
		doc, err := posts.FindByID("p1").Populate(storagemodels.Population{Path: "title"}).Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, "first", doc["title"])
	})
}
