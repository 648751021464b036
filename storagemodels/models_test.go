/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		expr string
		want []SortField
	}{
		{"", []SortField{}},
		{"name", []SortField{{Field: "name"}}},
		{"-createdAt,name", []SortField{{Field: "createdAt", Desc: true}, {Field: "name"}}},
		{"+views -score", []SortField{{Field: "views"}, {Field: "score", Desc: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSort(tt.expr))
		})
	}
}

func TestDocument(t *testing.T) {
	var empty Document
	assert.Nil(t, empty.ID())
	assert.Nil(t, empty.Clone())

	doc := Document{IDField: "p1", "title": "hello"}
	clone := doc.Clone()
	clone["title"] = "changed"
	assert.Equal(t, "hello", doc["title"])
	assert.Equal(t, "p1", clone.ID())
}

func TestSelector(t *testing.T) {
	byID := ByID("p1")
	assert.True(t, byID.IsID())
	assert.Equal(t, Document{IDField: "p1"}, byID.Filter())
	assert.Equal(t, "id=p1", byID.String())

	byFilter := ByFilter(nil)
	assert.False(t, byFilter.IsID())
	assert.Equal(t, Document{}, byFilter.Filter())

	where := Document{"views": Document{"$gt": 1}}
	assert.Equal(t, where, ByFilter(where).Filter())
	assert.Equal(t, Document{}, Filter{}.Conditions())
}

func TestScanOptions(t *testing.T) {
	opts := DefaultScanOptions()
	assert.Equal(t, int32(100), opts.PageSize)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, time.Second, opts.RetryBackoff)

	called := false
	for _, opt := range []ScanOption{
		WithPageSize(25),
		WithMaxRetries(5),
		WithRetryBackoff(time.Millisecond),
		WithProgressHandler(func(ScanProgress) { called = true }),
	} {
		opt(&opts)
	}
	assert.Equal(t, int32(25), opts.PageSize)
	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, time.Millisecond, opts.RetryBackoff)
	opts.ProgressHandler(ScanProgress{})
	assert.True(t, called)
}
