/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/recordgateway/storagemodels"
)

type page struct {
	items   []map[string]types.AttributeValue
	lastKey map[string]types.AttributeValue
}

type pageFetcher func(ctx context.Context, startKey map[string]types.AttributeValue) (page, error)

// queryAll runs a Query to exhaustion, page by page.
func (d *Database) queryAll(ctx context.Context, input *sdk.QueryInput) ([]map[string]types.AttributeValue, error) {
	return d.readPages(ctx, func(ctx context.Context, startKey map[string]types.AttributeValue) (page, error) {
		in := *input
		in.ExclusiveStartKey = startKey
		if d.scan.PageSize > 0 {
			in.Limit = aws.Int32(d.scan.PageSize)
		}
		out, err := d.client.Query(ctx, &in)
		if err != nil {
			return page{}, err
		}
		return page{items: out.Items, lastKey: out.LastEvaluatedKey}, nil
	})
}

// scanAll runs a Scan to exhaustion, page by page.
func (d *Database) scanAll(ctx context.Context, input *sdk.ScanInput) ([]map[string]types.AttributeValue, error) {
	return d.readPages(ctx, func(ctx context.Context, startKey map[string]types.AttributeValue) (page, error) {
		in := *input
		in.ExclusiveStartKey = startKey
		if d.scan.PageSize > 0 {
			in.Limit = aws.Int32(d.scan.PageSize)
		}
		out, err := d.client.Scan(ctx, &in)
		if err != nil {
			return page{}, err
		}
		return page{items: out.Items, lastKey: out.LastEvaluatedKey}, nil
	})
}

func (d *Database) readPages(ctx context.Context, fetch pageFetcher) ([]map[string]types.AttributeValue, error) {
	var (
		items    []map[string]types.AttributeValue
		startKey map[string]types.AttributeValue
		pages    int
		started  = time.Now()
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := d.fetchWithRetry(ctx, fetch, startKey)
		if err != nil {
			return nil, err
		}
		pages++
		items = append(items, p.items...)
		d.reportProgress(int64(len(items)), pages, started)

		if len(p.lastKey) == 0 {
			return items, nil
		}
		startKey = p.lastKey
	}
}

func (d *Database) reportProgress(items int64, pages int, started time.Time) {
	progress := storagemodels.ScanProgress{
		ItemsProcessed: items,
		PagesProcessed: pages,
		StartTime:      started,
	}
	if elapsed := time.Since(started).Seconds(); elapsed > 0 {
		progress.CurrentRate = float64(items) / elapsed
	}
	d.log.Debug("read page %d of table %s (%d items)", pages, d.tableName, items)
	if d.scan.ProgressHandler != nil {
		d.scan.ProgressHandler(progress)
	}
}

// fetchWithRetry fetches one page, retrying transient errors with a linear backoff.
func (d *Database) fetchWithRetry(ctx context.Context, fetch pageFetcher, startKey map[string]types.AttributeValue) (page, error) {
	var lastErr error

	for attempt := 0; attempt <= d.scan.MaxRetries; attempt++ {
		p, err := fetch(ctx, startKey)
		if err == nil {
			return p, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return page{}, fmt.Errorf("read %s: %w", d.tableName, err)
		}

		if attempt < d.scan.MaxRetries {
			d.log.Warn("retrying read of %s after: %v", d.tableName, err)
			if err := d.sleep(ctx, attempt); err != nil {
				return page{}, err
			}
		}
	}

	return page{}, fmt.Errorf("read failed after %d retries: %w", d.scan.MaxRetries, lastErr)
}

func (d *Database) sleep(ctx context.Context, attempt int) error {
	backoff := time.Duration(attempt+1) * d.scan.RetryBackoff
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if stderrors.As(err, &throughput) || stderrors.As(err, &limit) || stderrors.As(err, &internal) {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if stderrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}
