//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/suparena/recordgateway/datastore/ddb"
	"github.com/suparena/recordgateway/datastore/mongo"
	"github.com/suparena/recordgateway/registry"
)

func TestArticleScenarioMongo(t *testing.T) {
	_ = godotenv.Load()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping MongoDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := mongo.Connect(ctx, uri, fmt.Sprintf("recordgateway_it_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Close(context.Background())
	})

	runArticleScenario(t, db.Model("authors"), db.Model("articles").WithRef("author", "authors"))
}

func TestArticleScenarioDynamoDB(t *testing.T) {
	_ = godotenv.Load()
	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		t.Skip("AWS_DDB_TABLE not set, skipping DynamoDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
		Region:          os.Getenv("AWS_REGION"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("AWS_SECRET_KEY"),
		Endpoint:        os.Getenv("AWS_DDB_ENDPOINT"),
	})
	require.NoError(t, err)

	suffix := time.Now().UnixNano()
	authors := fmt.Sprintf("it_authors_%d", suffix)
	articles := fmt.Sprintf("it_articles_%d", suffix)
	registry.RegisterIndexMap(authors, map[string]string{
		"PK": "AUTHOR#{_id}",
		"SK": "PROFILE",
	})
	registry.RegisterIndexMap(articles, map[string]string{
		"PK":     "ARTICLE#{_id}",
		"SK":     "METADATA",
		"GSI1PK": articles,
		"GSI1SK": "{publishedAt}",
	})

	db := ddb.New(client, table, ddb.WithGSI(ddb.DefaultGSIConfigs["GSI1"]))
	runArticleScenario(t, db.Model(authors), db.Model(articles).WithRef("author", authors))
}
