/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordgateway

import (
	"context"

	"github.com/suparena/recordgateway/storagemodels"
)

// Hooks are the optional extension points of a gateway. A nil hook is skipped.
//
// Before hooks receive the mutable arguments of the call and may change them;
// after hooks observe the call's input and outcome. An error returned by any
// hook aborts the remaining steps of the call and is returned unchanged. An
// after hook failing does not undo the write that preceded it.
type Hooks[T any] struct {
	// BeforeFind runs before Find, FindOne, Count and Exists. Count and Exists
	// pass an empty include list whose changes are ignored.
	BeforeFind func(ctx context.Context, filter *storagemodels.Filter, include *[]string) error
	// AfterFind runs after Find and after FindOne when a record was found.
	AfterFind func(ctx context.Context, records []*Record[T]) error

	// BeforeCreate may replace the items about to be created.
	BeforeCreate func(ctx context.Context, items []T) ([]T, error)
	AfterCreate  func(ctx context.Context, items []T, created []*Record[T]) error

	// BeforeEdit may replace the update document. Returning nil means "no
	// data": UpdateMany then short-circuits, other verbs send an empty update.
	BeforeEdit func(ctx context.Context, target storagemodels.Selector, data storagemodels.Document, opts *storagemodels.Options) (storagemodels.Document, error)
	AfterEdit  func(ctx context.Context, target storagemodels.Selector, result EditResult) error

	BeforeDelete func(ctx context.Context, target storagemodels.Selector, opts *storagemodels.Options) error
	// AfterDelete receives the filter of the delete and what it removed.
	AfterDelete func(ctx context.Context, where storagemodels.Document, outcome DeleteOutcome) error
}

// EditResult is what an edit verb produced: the engine's document for
// single-document verbs, or the summary for UpdateMany.
type EditResult struct {
	Document storagemodels.Document
	Update   *storagemodels.UpdateResult
}

// DeleteOutcome is what a delete verb produced.
type DeleteOutcome struct {
	// Removed lists the removed documents when they are known: the returned
	// document of the find-and-delete verbs, or the documents DeleteMany
	// fetched before deleting when an AfterDelete hook is set.
	Removed []storagemodels.Document
	// Result is the engine's summary for DeleteOne and DeleteMany.
	Result *storagemodels.DeleteResult
}
