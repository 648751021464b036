/*
Package datastore defines the contract between the record gateway and a
persistence engine.

The main interface is Model, one handle per collection, exposing the
mongoose-style verb set the gateway delegates to:

	type Model interface {
	    Find(where Document) Query
	    FindOne(where Document) SingleQuery
	    FindByID(id any) SingleQuery
	    CountDocuments(where Document) CountQuery
	    Exists(ctx, where) (bool, error)
	    Create(ctx, docs, opts) ([]Document, error)
	    FindByIDAndUpdate / FindByIDAndDelete / FindOneAndUpdate /
	    FindOneAndReplace / FindOneAndDelete
	    DeleteOne / DeleteMany / UpdateMany
	}

Queries are lazy: Sort, Skip, Limit and Populate chain, Exec runs.

Implementations:
  - mongo: MongoDB implementation on the official driver
  - ddb: DynamoDB implementation with support for single-table design
  - mock: In-memory implementation for testing
  - memquery: shared in-memory filter, sort and update semantics
*/
package datastore
