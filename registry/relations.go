/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"

	"github.com/suparena/recordgateway/errors"
)

// Relation describes one named relation of a model. It is either Simple or Configured.
type Relation interface {
	relation()
}

// Simple populates the attribute named by the relation using the engine's
// default population shape. The fetched data stays under its natural path.
type Simple struct{}

func (Simple) relation() {}

// Configured copies the attribute at Path onto the record under the
// relation name, optionally passing it through Transform.
type Configured struct {
	// Path is the source attribute on the fetched document.
	Path string
	// Transform maps the raw value before assignment. Optional.
	Transform func(any) any
	// From names the collection the engine resolves Path from. Optional.
	From string
	// Select restricts the attributes of populated documents. Optional.
	Select []string
}

func (Configured) relation() {}

// Relations maps relation names to descriptors. The zero value is an empty registry.
type Relations struct {
	defs map[string]Relation
}

// NewRelations validates defs and returns an immutable registry.
func NewRelations(defs map[string]Relation) (Relations, error) {
	out := make(map[string]Relation, len(defs))
	for name, rel := range defs {
		if err := validate(name, rel); err != nil {
			return Relations{}, err
		}
		out[name] = rel
	}
	return Relations{defs: out}, nil
}

// MustRelations is like NewRelations but panics on a broken definition.
// It simplifies package-level model declarations.
func MustRelations(defs map[string]Relation) Relations {
	rels, err := NewRelations(defs)
	if err != nil {
		panic(err)
	}
	return rels
}

func validate(name string, rel Relation) error {
	if name == "" {
		return errors.NewConfigurationError(name, "relation name is empty")
	}
	switch r := rel.(type) {
	case Simple, *Simple:
		return nil
	case Configured:
		if r.Path == "" {
			return errors.NewConfigurationError(name, "configured relation requires a path")
		}
		return nil
	case *Configured:
		if r == nil || r.Path == "" {
			return errors.NewConfigurationError(name, "configured relation requires a path")
		}
		return nil
	default:
		return errors.NewConfigurationError(name, fmt.Sprintf("unsupported descriptor %T", rel))
	}
}

// Lookup returns the descriptor registered under name.
func (r Relations) Lookup(name string) (Relation, bool) {
	rel, ok := r.defs[name]
	return rel, ok
}

// Names returns the registered relation names in sorted order.
func (r Relations) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered relations.
func (r Relations) Len() int {
	return len(r.defs)
}
