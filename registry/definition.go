/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"

	"github.com/suparena/recordgateway/errors"
	"gopkg.in/yaml.v3"
)

// PopulateKeyword marks a Simple relation in declarative definitions.
const PopulateKeyword = "populate"

// Definition is the declarative form of a relation, as written in YAML:
//
//	relations:
//	  tags: populate
//	  author:
//	    path: _id
//	    transform: string
//	    from: users
//	    select: [name, email]
type Definition struct {
	Simple    bool
	Path      string   `yaml:"path"`
	Transform string   `yaml:"transform"`
	From      string   `yaml:"from"`
	Select    []string `yaml:"select"`

	// broken holds the reason a definition cannot be compiled.
	broken string
}

// UnmarshalYAML accepts the populate keyword or a mapping. Any other shape
// is recorded and reported by Compile.
func (d *Definition) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == PopulateKeyword {
			*d = Definition{Simple: true}
			return nil
		}
		*d = Definition{broken: fmt.Sprintf("unexpected scalar %q", node.Value)}
		return nil
	case yaml.MappingNode:
		type plain Definition
		var p plain
		if err := node.Decode(&p); err != nil {
			*d = Definition{broken: err.Error()}
			return nil
		}
		*d = Definition(p)
		d.Simple = false
		return nil
	default:
		*d = Definition{broken: fmt.Sprintf("unexpected %s", kindName(node.Kind))}
		return nil
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "node"
	}
}

// Compile turns declarative definitions into a Relations registry, resolving
// transform names through the transform registry.
func Compile(defs map[string]Definition) (Relations, error) {
	rels := make(map[string]Relation, len(defs))
	for name, def := range defs {
		if def.broken != "" {
			return Relations{}, errors.NewConfigurationError(name, def.broken)
		}
		if def.Simple {
			rels[name] = Simple{}
			continue
		}
		c := Configured{Path: def.Path, From: def.From, Select: def.Select}
		if def.Transform != "" {
			fn, err := GetTransform(def.Transform)
			if err != nil {
				return Relations{}, errors.NewConfigurationError(name, err.Error())
			}
			c.Transform = fn
		}
		rels[name] = c
	}
	return NewRelations(rels)
}

// LoadRelations parses a YAML mapping of relation definitions and compiles it.
func LoadRelations(data []byte) (Relations, error) {
	var defs map[string]Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return Relations{}, fmt.Errorf("parse relation definitions: %w", err)
	}
	return Compile(defs)
}
