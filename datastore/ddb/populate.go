/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/recordgateway/datastore/memquery"
	"github.com/suparena/recordgateway/storagemodels"
)

// maxBatchGet is the BatchGetItem key limit.
const maxBatchGet = 100

// populate replaces references in docs with the referenced documents.
func (m *Model) populate(ctx context.Context, docs []storagemodels.Document, pops []storagemodels.Population) error {
	for _, p := range pops {
		from := p.From
		if from == "" {
			from = m.refs[p.Path]
		}
		if from == "" || len(docs) == 0 {
			continue
		}

		ids := memquery.CollectRefs(docs, p.Path)
		if len(ids) == 0 {
			continue
		}

		found, err := m.db.fetchByIDs(ctx, from, ids)
		if err != nil {
			return fmt.Errorf("populate %s from %s: %w", p.Path, from, err)
		}
		byID := make(map[string]storagemodels.Document, len(found))
		for _, doc := range found {
			byID[memquery.RefKey(doc.ID())] = memquery.Project(doc, p.Select)
		}
		memquery.ReplaceRefs(docs, p.Path, byID)
	}
	return nil
}

// fetchByIDs loads documents of collection by id. Keys derivable from the
// id alone are read with BatchGetItem; otherwise the collection is loaded
// with an $in filter.
func (d *Database) fetchByIDs(ctx context.Context, collection string, ids []any) ([]storagemodels.Document, error) {
	target := d.Model(collection)
	indexMap, err := indexMapFor(collection)
	if err != nil {
		return nil, err
	}

	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		key, ok, err := keyFor(indexMap, storagemodels.Document{storagemodels.IDField: id})
		if err != nil {
			return nil, err
		}
		if !ok {
			return target.load(ctx, storagemodels.Document{
				storagemodels.IDField: storagemodels.Document{"$in": ids},
			})
		}
		keys = append(keys, key)
	}

	var docs []storagemodels.Document
	for start := 0; start < len(keys); start += maxBatchGet {
		end := min(start+maxBatchGet, len(keys))
		items, err := d.batchGet(ctx, keys[start:end])
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if entityType(item) != collection {
				continue
			}
			doc, err := fromItem(indexMap, item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// batchGet reads up to maxBatchGet keys, re-requesting unprocessed keys.
func (d *Database) batchGet(ctx context.Context, keys []map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	request := map[string]types.KeysAndAttributes{
		d.tableName: {Keys: keys},
	}

	for attempt := 0; len(request) > 0; attempt++ {
		if attempt > d.scan.MaxRetries {
			return nil, fmt.Errorf("BatchGetItem left keys unprocessed after %d retries", d.scan.MaxRetries)
		}
		if attempt > 0 {
			if err := d.sleep(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		out, err := d.client.BatchGetItem(ctx, &sdk.BatchGetItemInput{RequestItems: request})
		if err != nil {
			if isRetryableError(err) {
				d.log.Warn("retrying BatchGetItem on %s after: %v", d.tableName, err)
				continue
			}
			return nil, fmt.Errorf("BatchGetItem failed: %w", err)
		}
		items = append(items, out.Responses[d.tableName]...)
		request = out.UnprocessedKeys
	}
	return items, nil
}
