package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const upsertBatchSize = 100

// BulkUpsert creates or updates items in batches of 100, one store
// transaction per batch. A failing item records an {sku, error} entry and the
// rest of the batch still commits; only a transaction-level fault aborts a
// whole batch. Re-running the same input converges on the same end state,
// though the created/updated split shifts between runs.
func (s *Service) BulkUpsert(ctx context.Context, priceListID string, items []itemdomain.ItemInput) (*itemdomain.BulkUpsertResult, error) {
	listID, err := s.resolveList(ctx, priceListID)
	if err != nil {
		return nil, err
	}

	result := &itemdomain.BulkUpsertResult{Errors: make([]itemdomain.ItemError, 0)}

	for start := 0; start < len(items); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, input := range batch {
				s.upsertOne(ctx, tx, listID, input, result)
			}
			return nil
		})
		if err != nil {
			// Store-level fault: the whole batch rolled back.
			s.log.Error("bulk upsert batch failed",
				zap.String("price_list_id", listID.String()),
				zap.Int("batch_start", start),
				zap.Error(err),
			)
			return nil, err
		}
	}

	return result, nil
}

// upsertOne writes a single item inside the batch transaction. The write runs
// in a nested transaction (savepoint) so an item-level failure does not
// poison the surrounding batch.
func (s *Service) upsertOne(ctx context.Context, tx *gorm.DB, listID snowflake.ID, input itemdomain.ItemInput, result *itemdomain.BulkUpsertResult) {
	input.SKU = strings.TrimSpace(input.SKU)
	if err := validateItemInput(input); err != nil {
		result.Errors = append(result.Errors, itemdomain.ItemError{SKU: input.SKU, Error: err.Error()})
		return
	}

	existing, err := s.repo.FindBySKU(ctx, tx, listID, input.SKU)
	if err != nil {
		result.Errors = append(result.Errors, itemdomain.ItemError{SKU: input.SKU, Error: err.Error()})
		return
	}

	now := s.clock.Now()
	writeErr := tx.Transaction(func(itemTx *gorm.DB) error {
		if existing != nil {
			applyItemInput(existing, input, now)
			existing.LastSyncAt = &now
			return s.repo.Update(ctx, itemTx, existing)
		}
		entity := s.buildItem(listID, input, now)
		entity.LastSyncAt = &now
		return s.repo.Insert(ctx, itemTx, entity)
	})
	if writeErr != nil {
		result.Errors = append(result.Errors, itemdomain.ItemError{SKU: input.SKU, Error: writeErr.Error()})
		return
	}

	if existing != nil {
		result.Updated++
	} else {
		result.Created++
	}
}
