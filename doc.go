/*
Package recordgateway is a thin gateway between application code and a
document persistence engine.

A Gateway runs every CRUD verb of one model through an optional hook
sandwich (before hook, engine call, result wrapping, after hook) and
resolves named relations through a relation registry: Simple relations are
populated by the engine at their natural path, Configured relations copy a
source attribute of the fetched document onto the record, optionally through
a transform.

Engines implement datastore.Model. Three are provided: an in-memory engine
for tests (datastore/mock), MongoDB (datastore/mongo) and a single-table
DynamoDB engine (datastore/ddb).

Basic Usage:

	rels := registry.MustRelations(map[string]registry.Relation{
		"author": registry.Configured{Path: "_id", Transform: func(v any) any { return fmt.Sprintf("user/%v", v) }},
		"tags":   registry.Simple{},
	})

	posts, _ := recordgateway.New(recordgateway.Config[Post]{
		Name:      "posts",
		Model:     engine.Model("posts"),
		Relations: rels,
	})

	recs, err := posts.Find(ctx, storagemodels.Filter{Limit: 10}, []string{"author", "tags"})

A Catalog holds gateways by model name; Open builds one from a config file.
*/
package recordgateway
