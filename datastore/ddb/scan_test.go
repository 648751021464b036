/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/recordgateway/storagemodels"
)

func throttled() error {
	return &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
}

func TestPagedReads(t *testing.T) {
	ctx := context.Background()

	t.Run("Paging", func(t *testing.T) {
		var last storagemodels.ScanProgress
		calls := 0
		db, fc := newTestDB(WithScanOptions(
			storagemodels.WithPageSize(2),
			storagemodels.WithProgressHandler(func(p storagemodels.ScanProgress) {
				calls++
				last = p
			}),
		))
		users := db.Model("users")
		for i := 0; i < 5; i++ {
			_, err := users.Create(ctx, []D{{"_id": fmt.Sprintf("u%d", i)}}, storagemodels.Options{})
			require.NoError(t, err)
		}

		docs, err := users.Find(nil).Exec(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 5)
		assert.Equal(t, 3, fc.count("Scan"))
		assert.Equal(t, 3, calls)
		assert.Equal(t, 3, last.PagesProcessed)
		assert.Equal(t, int64(5), last.ItemsProcessed)
		assert.False(t, last.StartTime.IsZero())
	})

	t.Run("RetriesThrottling", func(t *testing.T) {
		db, fc := newTestDB()
		users := db.Model("users")
		seedUsers(t, users)

		fc.failNext("Scan", throttled(), throttled())
		docs, err := users.Find(nil).Exec(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 3)
		assert.Equal(t, 3, fc.count("Scan"))
	})

	t.Run("GivesUp", func(t *testing.T) {
		db, fc := newTestDB(WithScanOptions(storagemodels.WithMaxRetries(1)))
		users := db.Model("users")

		fc.failNext("Scan", throttled(), throttled())
		_, err := users.Find(nil).Exec(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read failed after 1 retries")
		assert.Equal(t, 2, fc.count("Scan"))
	})

	t.Run("PermanentError", func(t *testing.T) {
		db, fc := newTestDB()
		users := db.Model("users")

		fc.failNext("Scan", stderrors.New("access denied"))
		_, err := users.Find(nil).Exec(ctx)
		assert.ErrorContains(t, err, "access denied")
		assert.Equal(t, 1, fc.count("Scan"))
	})

	t.Run("Cancelled", func(t *testing.T) {
		db, _ := newTestDB()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := db.Model("users").Find(nil).Exec(cctx)
		assert.True(t, stderrors.Is(err, context.Canceled))
	})

	t.Run("BackoffHonoursContext", func(t *testing.T) {
		db, fc := newTestDB(WithScanOptions(storagemodels.WithRetryBackoff(time.Hour)))
		fc.failNext("Scan", throttled())

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := db.Model("users").Find(nil).Exec(cctx)
		assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	})
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"throughput", throttled(), true},
		{"request limit", &types.RequestLimitExceeded{Message: aws.String("limit")}, true},
		{"internal", &types.InternalServerError{Message: aws.String("oops")}, true},
		{"wrapped", fmt.Errorf("page 3: %w", throttled()), true},
		{"condition", &types.ConditionalCheckFailedException{Message: aws.String("no")}, false},
		{"plain", stderrors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
