/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/recordgateway/storagemodels"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type D = storagemodels.Document

func TestToFilterCoercesObjectIDs(t *testing.T) {
	oid := primitive.NewObjectID()
	other := primitive.NewObjectID()

	f := toFilter(D{"_id": oid.Hex(), "title": "x"})
	assert.Equal(t, oid, f["_id"])
	assert.Equal(t, "x", f["title"])

	f = toFilter(D{"_id": D{"$in": []any{oid.Hex(), other.Hex(), "plain"}}})
	in := f["_id"].(bson.M)["$in"].(bson.A)
	assert.Equal(t, bson.A{oid, other, "plain"}, in)

	f = toFilter(D{"$or": []any{D{"_id": oid.Hex()}, D{"title": "y"}}})
	or := f["$or"].(bson.A)
	require.Len(t, or, 2)
	assert.Equal(t, oid, or[0].(bson.M)["_id"])

	f = toFilter(D{"_id": "u1"})
	assert.Equal(t, "u1", f["_id"])

	assert.Equal(t, bson.M{}, toFilter(nil))
}

func TestToBSONValues(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	dt := strfmt.DateTime(now)

	doc := toBSON(D{
		"createdAt": dt,
		"updatedAt": &dt,
		"nested":    map[string]any{"tags": []any{"a", "b"}},
	})
	assert.Equal(t, now, doc["createdAt"])
	assert.Equal(t, now, doc["updatedAt"])
	assert.Equal(t, bson.M{"tags": bson.A{"a", "b"}}, doc["nested"])
}

func TestFromBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	doc := fromBSON(bson.M{
		"_id":     oid,
		"when":    primitive.NewDateTimeFromTime(at),
		"count":   int32(3),
		"ratio":   float32(0.5),
		"tags":    bson.A{oid, "x"},
		"profile": bson.D{{Key: "name", Value: "ann"}},
		"meta":    bson.M{"by": oid},
	})

	assert.Equal(t, oid.Hex(), doc.ID())
	assert.True(t, at.Equal(doc["when"].(time.Time)))
	assert.Equal(t, int64(3), doc["count"])
	assert.Equal(t, 0.5, doc["ratio"])
	assert.Equal(t, []any{oid.Hex(), "x"}, doc["tags"])
	assert.Equal(t, D{"name": "ann"}, doc["profile"])
	assert.Equal(t, D{"by": oid.Hex()}, doc["meta"])
}

func TestSortSpec(t *testing.T) {
	spec := sortSpec(storagemodels.ParseSort("-createdAt,title"))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "title", Value: 1}}, spec)
}

func TestIsEmptyUpdate(t *testing.T) {
	assert.True(t, isEmptyUpdate(D{"$set": D{}}))
	assert.True(t, isEmptyUpdate(D{}))
	assert.False(t, isEmptyUpdate(D{"$set": D{"a": 1}}))
	assert.False(t, isEmptyUpdate(D{"$inc": map[string]any{"n": 1}}))
}
