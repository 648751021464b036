/*
Package registry holds the per-model relation registry and the resolver that
turns an include list into query populations and record attributes.

Relations:
A registry maps relation names to descriptors. A descriptor is either Simple
(populate the attribute of the same name) or Configured (copy, and optionally
transform, a source attribute onto the record under the relation name):

	rels := registry.MustRelations(map[string]registry.Relation{
	    "tags":   registry.Simple{},
	    "author": registry.Configured{Path: "_id", Transform: func(v any) any {
	        return fmt.Sprintf("user/%v", v)
	    }},
	})

Broken descriptors are rejected when the registry is built, with an
errors.ConfigurationError.

Resolver:
PopulateIncludes augments a query before it runs; ApplyIncludes copies the
configured relations onto the record after it is fetched. Include names that
are not registered are ignored.

Declarative definitions:
Relations can be declared in YAML and compiled with LoadRelations. Named
transforms are resolved through RegisterTransform / GetTransform:

	registry.RegisterTransform("userURI", func(v any) any {
	    return fmt.Sprintf("user/%v", v)
	})

Index maps:
DynamoDB key templates are registered per collection:

	registry.RegisterIndexMap("posts", map[string]string{
	    "PK": "POST#{_id}",
	    "SK": "POST#{_id}",
	})

The registries are thread-safe and should be populated during initialization.
*/
package registry
