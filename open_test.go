/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/recordgateway"
	"github.com/suparena/recordgateway/config"
	"github.com/suparena/recordgateway/datastore/ddb"
	"github.com/suparena/recordgateway/datastore/mock"
	"github.com/suparena/recordgateway/logger"
	"github.com/suparena/recordgateway/registry"
	"github.com/suparena/recordgateway/storagemodels"
)

const memoryConfig = `
engine: memory
log_level: error
models:
  articles:
    refs:
      tags: labels
    relations:
      tags: populate
      ref: {path: code, transform: string}
  labels:
    collection: labels
`

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Parse([]byte(memoryConfig))
	require.NoError(t, err)

	db := mock.New()
	db.Seed("labels", D{"_id": "l1", "name": "go"})

	catalog, closeFn, err := recordgateway.Open(ctx, cfg,
		recordgateway.WithMemoryDatabase(db),
		recordgateway.WithOpenLogger(logger.NewNullLogger()),
	)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn(ctx)) }()

	assert.Equal(t, []string{"articles", "labels"}, catalog.Names())

	articles, err := recordgateway.Lookup[storagemodels.Document](catalog, "articles")
	require.NoError(t, err)
	assert.Equal(t, 2, articles.Relations().Len())

	_, err = articles.Create(ctx, D{"_id": "a1", "title": "hello", "code": 7, "tags": []any{"l1"}}, storagemodels.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, db.Count("articles"))

	recs, err := articles.Find(ctx, storagemodels.Filter{}, []string{"tags", "ref"})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	ref, ok := recs[0].Include("ref")
	require.True(t, ok)
	assert.Equal(t, "7", ref)

	tags, ok := recs[0].Data["tags"].([]any)
	require.True(t, ok)
	require.Len(t, tags, 1)
	assert.Equal(t, "go", tags[0].(D)["name"])
}

func TestOpenLeavesCallerLoggersAlone(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Parse([]byte(memoryConfig))
	require.NoError(t, err)

	t.Run("GlobalLogger", func(t *testing.T) {
		prev := logger.GetGlobalLogger()
		defer logger.SetGlobalLogger(prev)
		global := logger.NewDefaultLogger("test")
		global.SetLevel(logger.LogLevelDebug)
		logger.SetGlobalLogger(global)

		_, closeFn, err := recordgateway.Open(ctx, cfg, recordgateway.WithMemoryDatabase(mock.New()))
		require.NoError(t, err)
		require.NoError(t, closeFn(ctx))
		assert.Equal(t, logger.LogLevelDebug, logger.GetGlobalLogger().GetLevel())
	})

	t.Run("InjectedLogger", func(t *testing.T) {
		injected := logger.NewDefaultLogger("test")
		injected.SetLevel(logger.LogLevelWarn)

		_, closeFn, err := recordgateway.Open(ctx, cfg,
			recordgateway.WithMemoryDatabase(mock.New()),
			recordgateway.WithOpenLogger(injected),
		)
		require.NoError(t, err)
		require.NoError(t, closeFn(ctx))
		assert.Equal(t, logger.LogLevelWarn, injected.GetLevel())
	})
}

type stubDynamoDB struct {
	ddb.Client
}

func TestOpenDynamoDB(t *testing.T) {
	cfg, err := config.Parse([]byte(`
engine: dynamodb
dynamodb:
  region: us-east-1
  table_name: app
  gsi:
    index_name: GSI1
  page_size: 50
models:
  widgets:
    collection: open_test_widgets
    keys:
      PK: "WIDGET#{_id}"
      SK: "WIDGET"
      GSI1PK: "WIDGET"
`))
	require.NoError(t, err)

	catalog, closeFn, err := recordgateway.Open(context.Background(), cfg,
		recordgateway.WithDynamoDBClient(stubDynamoDB{}),
		recordgateway.WithOpenLogger(logger.NewNullLogger()),
	)
	require.NoError(t, err)
	require.NoError(t, closeFn(context.Background()))
	assert.Equal(t, []string{"widgets"}, catalog.Names())

	keys, ok := registry.GetIndexMap("open_test_widgets")
	require.True(t, ok)
	assert.Equal(t, "WIDGET#{_id}", keys["PK"])
}
