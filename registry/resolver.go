/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"

	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/storagemodels"
)

// Populater is a query that can be asked to load related documents.
type Populater[Q any] interface {
	Populate(p storagemodels.Population) Q
}

// PopulateIncludes chains one population per included relation onto q.
// Names missing from rels are skipped. The query is not executed.
func PopulateIncludes[Q Populater[Q]](q Q, rels Relations, include []string) (Q, error) {
	for _, name := range include {
		rel, ok := rels.Lookup(name)
		if !ok {
			continue
		}
		switch r := rel.(type) {
		case Simple, *Simple:
			q = q.Populate(storagemodels.Population{Path: name})
		case Configured:
			q = q.Populate(population(r))
		case *Configured:
			if r == nil {
				return q, errors.NewConfigurationError(name, "nil descriptor")
			}
			q = q.Populate(population(*r))
		default:
			return q, errors.NewConfigurationError(name, fmt.Sprintf("unsupported descriptor %T", rel))
		}
	}
	return q, nil
}

func population(c Configured) storagemodels.Population {
	return storagemodels.Population{Path: c.Path, From: c.From, Select: c.Select}
}

// PopulatedPaths lists the attributes that PopulateIncludes asks the engine
// to fill with referenced documents: the name of each Simple relation and
// the Path of each Configured relation that names a From collection.
func PopulatedPaths(rels Relations, include []string) []string {
	var paths []string
	for _, name := range include {
		rel, ok := rels.Lookup(name)
		if !ok {
			continue
		}
		switch r := rel.(type) {
		case Simple, *Simple:
			paths = append(paths, name)
		case Configured:
			if r.From != "" {
				paths = append(paths, r.Path)
			}
		case *Configured:
			if r != nil && r.From != "" {
				paths = append(paths, r.Path)
			}
		}
	}
	return paths
}

// ApplyIncludes assigns each included Configured relation onto includes,
// reading its source attribute from raw. Simple relations are left untouched
// because population already placed their data at its natural path.
func ApplyIncludes(includes map[string]any, raw storagemodels.Document, rels Relations, include []string) map[string]any {
	for _, name := range include {
		rel, ok := rels.Lookup(name)
		if !ok {
			continue
		}
		var c Configured
		switch r := rel.(type) {
		case Configured:
			c = r
		case *Configured:
			if r == nil {
				continue
			}
			c = *r
		default:
			continue
		}
		if includes == nil {
			includes = make(map[string]any)
		}
		val := raw[c.Path]
		if c.Transform != nil {
			val = c.Transform(val)
		}
		includes[name] = val
	}
	return includes
}
