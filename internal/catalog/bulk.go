// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// BulkFailure records one category id that could not be deleted during a
// bulk operation, with a human-readable reason.
type BulkFailure struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// BulkResult aggregates the per-id outcomes of a bulk delete. The batch
// itself always succeeds at the orchestration level; constituent
// failures are reported in Failed rather than raised.
type BulkResult struct {
	Successful        []uuid.UUID   `json:"successful"`
	Failed            []BulkFailure `json:"failed"`
	CategoriesDeleted int           `json:"categories_deleted"`
	ServicesMigrated  int           `json:"services_migrated"`
	ServicesDeleted   int           `json:"services_deleted"`
	ServicesOrphaned  int           `json:"services_orphaned"`
}

// BulkDelete applies one deletion mode to every id in order, isolating
// failures per id: one category's error never aborts the batch, and
// there is no cross-id transaction. Duplicate ids produce duplicate
// outcomes (the second attempt fails with not-found). If the context is
// cancelled mid-batch, the remaining ids are recorded as failed.
func (r *Resolver) BulkDelete(ctx context.Context, ids []uuid.UUID, opts Options) *BulkResult {
	result := &BulkResult{
		Successful: []uuid.UUID{},
		Failed:     []BulkFailure{},
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: err.Error()})
			continue
		}

		outcome, err := r.Delete(ctx, id, opts)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: err.Error()})
			continue
		}

		result.Successful = append(result.Successful, id)
		result.CategoriesDeleted++
		result.ServicesMigrated += outcome.ServicesMigrated
		result.ServicesDeleted += outcome.ServicesDeleted
		result.ServicesOrphaned += outcome.ServicesOrphaned
	}

	slog.Info("bulk category delete finished",
		"requested", len(ids),
		"deleted", result.CategoriesDeleted,
		"failed", len(result.Failed),
		"services_migrated", result.ServicesMigrated,
		"services_deleted", result.ServicesDeleted,
	)
	return result
}
