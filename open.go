/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway

import (
	"context"
	"fmt"

	"github.com/suparena/recordgateway/config"
	"github.com/suparena/recordgateway/datastore"
	"github.com/suparena/recordgateway/datastore/ddb"
	"github.com/suparena/recordgateway/datastore/mock"
	"github.com/suparena/recordgateway/datastore/mongo"
	"github.com/suparena/recordgateway/logger"
	"github.com/suparena/recordgateway/registry"
	"github.com/suparena/recordgateway/storagemodels"
)

// CloseFunc releases the engine resources acquired by Open.
type CloseFunc func(ctx context.Context) error

// OpenOption customizes Open
type OpenOption func(*openOptions)

type openOptions struct {
	memory    *mock.Database
	ddbClient ddb.Client
	log       logger.Logger
}

// WithMemoryDatabase makes the memory engine use db instead of a fresh database
func WithMemoryDatabase(db *mock.Database) OpenOption {
	return func(o *openOptions) {
		o.memory = db
	}
}

// WithDynamoDBClient makes the dynamodb engine use client instead of one
// built from the configured credentials
func WithDynamoDBClient(client ddb.Client) OpenOption {
	return func(o *openOptions) {
		o.ddbClient = client
	}
}

// WithOpenLogger sets the logger handed to engines and gateways. It is used
// as is: the configured log_level only applies to the logger Open creates
// when this option is absent.
func WithOpenLogger(l logger.Logger) OpenOption {
	return func(o *openOptions) {
		o.log = l
	}
}

// modelFactory returns the engine handle of a collection with its references declared
type modelFactory func(collection string, refs map[string]string) datastore.Model

// Open connects the configured engine and registers one document gateway
// per configured model in a new catalog.
func Open(ctx context.Context, cfg *config.Config, opts ...OpenOption) (*Catalog, CloseFunc, error) {
	o := &openOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		l := logger.NewDefaultLogger("recordgateway")
		l.SetLevel(logger.ParseLogLevel(cfg.LogLevel))
		o.log = l
	}

	factory, closer, err := openEngine(ctx, cfg, o)
	if err != nil {
		return nil, nil, err
	}

	catalog := NewCatalog()
	for _, name := range cfg.ModelNames() {
		mc := cfg.Models[name]
		relations, err := registry.Compile(mc.Relations)
		if err != nil {
			_ = closer(ctx)
			return nil, nil, fmt.Errorf("model %s: %w", name, err)
		}

		g, err := New(Config[storagemodels.Document]{
			Name:      name,
			Model:     factory(mc.CollectionName(name), mc.Refs),
			Relations: relations,
			Logger:    o.log,
		})
		if err != nil {
			_ = closer(ctx)
			return nil, nil, err
		}
		if err := Register(catalog, g); err != nil {
			_ = closer(ctx)
			return nil, nil, err
		}
	}

	o.log.Info("opened %d models on the %s engine", len(cfg.Models), cfg.Engine)
	return catalog, closer, nil
}

func openEngine(ctx context.Context, cfg *config.Config, o *openOptions) (modelFactory, CloseFunc, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Engine {
	case config.EngineMemory:
		db := o.memory
		if db == nil {
			db = mock.New()
		}
		return func(collection string, refs map[string]string) datastore.Model {
			m := db.Model(collection)
			for path, target := range refs {
				m.WithRef(path, target)
			}
			return m
		}, noop, nil

	case config.EngineMongo:
		cctx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		db, err := mongo.Connect(cctx, cfg.Mongo.URI, cfg.Mongo.Database, mongo.WithLogger(o.log))
		if err != nil {
			return nil, nil, err
		}
		return func(collection string, refs map[string]string) datastore.Model {
			m := db.Model(collection)
			for path, target := range refs {
				m.WithRef(path, target)
			}
			return m
		}, db.Close, nil

	case config.EngineDynamoDB:
		for _, name := range cfg.ModelNames() {
			mc := cfg.Models[name]
			registry.RegisterIndexMap(mc.CollectionName(name), mc.Keys)
		}

		client := o.ddbClient
		if client == nil {
			c, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
				Region:          cfg.DynamoDB.Region,
				AccessKeyID:     cfg.DynamoDB.AccessKeyID,
				SecretAccessKey: cfg.DynamoDB.SecretAccessKey,
				Endpoint:        cfg.DynamoDB.Endpoint,
			})
			if err != nil {
				return nil, nil, err
			}
			client = c
		}

		db := ddb.New(client, cfg.DynamoDB.TableName, dynamoDBOptions(cfg.DynamoDB, o.log)...)
		return func(collection string, refs map[string]string) datastore.Model {
			m := db.Model(collection)
			for path, target := range refs {
				m.WithRef(path, target)
			}
			return m
		}, noop, nil
	}

	return nil, nil, fmt.Errorf("unknown engine %q", cfg.Engine)
}

func dynamoDBOptions(dc config.DynamoDBConfig, log logger.Logger) []ddb.Option {
	opts := []ddb.Option{ddb.WithLogger(log)}
	if dc.GSI != nil {
		opts = append(opts, ddb.WithGSI(ddb.GSIConfig{
			IndexName:        dc.GSI.IndexName,
			PartitionKeyName: dc.GSI.PartitionKeyName,
			SortKeyName:      dc.GSI.SortKeyName,
		}))
	}

	var scan []storagemodels.ScanOption
	if dc.PageSize > 0 {
		scan = append(scan, storagemodels.WithPageSize(dc.PageSize))
	}
	if dc.MaxRetries > 0 {
		scan = append(scan, storagemodels.WithMaxRetries(dc.MaxRetries))
	}
	if dc.RetryBackoff > 0 {
		scan = append(scan, storagemodels.WithRetryBackoff(dc.RetryBackoff))
	}
	if len(scan) > 0 {
		opts = append(opts, ddb.WithScanOptions(scan...))
	}
	return opts
}
