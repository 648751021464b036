/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway

import (
	"github.com/suparena/recordgateway/datastore"
	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/logger"
	"github.com/suparena/recordgateway/registry"
	"github.com/suparena/recordgateway/storagemodels"
)

// Config declares one model: its engine handle, relations and hooks.
type Config[T any] struct {
	// Name identifies the model in logs and catalogs.
	Name string
	// Model is the engine handle. Required.
	Model datastore.Model
	// Relations is the relation registry. The zero value has no relations.
	Relations registry.Relations
	Hooks     Hooks[T]
	// Logger defaults to the global logger.
	Logger logger.Logger
}

// Gateway runs the CRUD verbs of one model through its hooks and relation registry.
// It keeps no state between calls and is safe for concurrent use when its
// hooks are.
type Gateway[T any] struct {
	name      string
	model     datastore.Model
	relations registry.Relations
	hooks     Hooks[T]
	log       logger.Logger
}

// New creates a gateway for cfg.
func New[T any](cfg Config[T]) (*Gateway[T], error) {
	if cfg.Model == nil {
		return nil, &errors.ConfigurationError{Reason: "model handle is required for " + nameOrDefault(cfg.Name)}
	}
	return &Gateway[T]{
		name:      nameOrDefault(cfg.Name),
		model:     cfg.Model,
		relations: cfg.Relations,
		hooks:     cfg.Hooks,
		log:       cfg.Logger,
	}, nil
}

func nameOrDefault(name string) string {
	if name == "" {
		return "model"
	}
	return name
}

// Name returns the model name.
func (g *Gateway[T]) Name() string {
	return g.name
}

// Relations returns the relation registry.
func (g *Gateway[T]) Relations() registry.Relations {
	return g.relations
}

func (g *Gateway[T]) logger() logger.Logger {
	if g.log != nil {
		return g.log
	}
	return logger.GetGlobalLogger()
}

// wrap builds a fresh record from a raw document and attaches the included
// configured relations.
func (g *Gateway[T]) wrap(raw storagemodels.Document, include []string) (*Record[T], error) {
	data, err := decodeDocument[T](raw)
	if err != nil {
		return nil, err
	}
	rec := &Record[T]{
		Data:      data,
		raw:       raw,
		gateway:   g,
		populated: registry.PopulatedPaths(g.relations, include),
	}
	rec.Includes = registry.ApplyIncludes(rec.Includes, raw, g.relations, include)
	return rec, nil
}

func (g *Gateway[T]) wrapAll(raws []storagemodels.Document, include []string) ([]*Record[T], error) {
	records := make([]*Record[T], 0, len(raws))
	for _, raw := range raws {
		rec, err := g.wrap(raw, include)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
