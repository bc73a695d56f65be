// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog owns category deletion and its effect on dependent
// services. A category may not be removed with a raw row delete: every
// deletion goes through the Resolver, which either refuses (leaving both
// stores untouched) or performs the service-side mutation the requested
// mode calls for before removing the category row. The category delete
// always runs after the service mutation has been acknowledged, so the
// worst partial state is "services already moved or deleted, category
// still present" — never services orphaned against a vanished category,
// except under the explicit force mode.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/im7mortal/kmutex"

	"servhub/internal/models"
)

// DefaultCategoryName is the reserved category that absorbs services
// during safe deletes and orphan reconciliation. It is looked up (and
// created) by case-insensitive name so concurrent callers converge on a
// single record.
const DefaultCategoryName = "Uncategorized"

// CategoryStore is the category persistence contract the resolver needs.
// FindByID returns (nil, nil) when the id does not exist.
type CategoryStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindOrCreateByName(ctx context.Context, name string) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceStore is the service persistence contract the resolver needs.
// The resolver is the only component allowed to rewrite category
// references in bulk.
type ServiceStore interface {
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	RefsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.ServiceRef, error)
	DeleteByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	ReassignCategory(ctx context.Context, from, to uuid.UUID) (int, error)
	ReassignOrphans(ctx context.Context, to uuid.UUID) (int, error)
}

// Outcome reports the result of a single deletion attempt. It is
// returned to the caller and never persisted.
type Outcome struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ServicesDeleted  int    `json:"services_deleted,omitempty"`
	ServicesMigrated int    `json:"services_migrated,omitempty"`
	ServicesOrphaned int    `json:"services_orphaned,omitempty"`
}

// Info is a read-only preview of what deleting a category would do.
type Info struct {
	CategoryID      uuid.UUID           `json:"category_id"`
	CategoryName    string              `json:"category_name"`
	ServiceCount    int                 `json:"service_count"`
	Services        []models.ServiceRef `json:"services"`
	CanDeleteSafely bool                `json:"can_delete_safely"`
}

// Resolver decides whether a category deletion may proceed and applies
// the requested mode's effect on dependent services. A keyed mutex
// serializes deletions of the same category id, closing the race between
// the dependent-count check and the row delete for concurrent requests.
// It does not protect against a service being created under the category
// by a concurrent writer; those end up as orphans and are swept by
// Reconcile.
type Resolver struct {
	categories CategoryStore
	services   ServiceStore
	locks      *kmutex.Kmutex
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(categories CategoryStore, services ServiceStore) *Resolver {
	return &Resolver{
		categories: categories,
		services:   services,
		locks:      kmutex.New(),
	}
}

// Delete removes the category identified by id after applying the
// deletion mode resolved from opts. It returns ErrNotFound if the id
// does not exist, a ConflictError if a simple delete is blocked by
// dependents, and a StepError when the sequence fails partway.
func (r *Resolver) Delete(ctx context.Context, id uuid.UUID, opts Options) (*Outcome, error) {
	r.locks.Lock(id)
	defer r.locks.Unlock(id)

	cat, err := r.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	if cat == nil {
		return nil, ErrNotFound
	}

	switch m := opts.Mode().(type) {
	case Simple:
		return r.deleteSimple(ctx, cat)
	case Cascade:
		return r.deleteCascade(ctx, cat)
	case MigrateTo:
		return r.deleteMigrate(ctx, cat, m.Target)
	case CreateDefault:
		return r.deleteToDefault(ctx, cat)
	case Force:
		return r.deleteForce(ctx, cat)
	}
	// Unreachable: Mode is a closed set.
	return nil, fmt.Errorf("unknown deletion mode %T", opts.Mode())
}

// deleteSimple removes an empty category and refuses otherwise.
func (r *Resolver) deleteSimple(ctx context.Context, cat *models.Category) (*Outcome, error) {
	count, err := r.services.CountByCategory(ctx, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("count services: %w", err)
	}
	if count > 0 {
		return nil, &ConflictError{ServiceCount: count}
	}

	if err := r.categories.Delete(ctx, cat.ID); err != nil {
		return nil, &StepError{Completed: StepLookup, Err: err}
	}

	slog.Info("category deleted", "category", cat.Name, "mode", "simple")
	return &Outcome{
		Success: true,
		Message: fmt.Sprintf("category %q deleted", cat.Name),
	}, nil
}

// deleteCascade removes all dependent services, then the category.
func (r *Resolver) deleteCascade(ctx context.Context, cat *models.Category) (*Outcome, error) {
	deleted, err := r.services.DeleteByCategory(ctx, cat.ID)
	if err != nil {
		// Category untouched; the caller can retry.
		return nil, &StepError{Completed: StepLookup, Err: err}
	}

	if err := r.categories.Delete(ctx, cat.ID); err != nil {
		// Services are already gone. Re-running cascade is a no-op on
		// the service side and proceeds straight to the category delete.
		return nil, &StepError{Completed: StepServices, Err: err}
	}

	slog.Info("category deleted", "category", cat.Name, "mode", "cascade", "services_deleted", deleted)
	return &Outcome{
		Success:         true,
		Message:         fmt.Sprintf("category %q and %d service(s) deleted", cat.Name, deleted),
		ServicesDeleted: deleted,
	}, nil
}

// deleteMigrate moves dependents to an existing target, then deletes the
// source category.
func (r *Resolver) deleteMigrate(ctx context.Context, cat *models.Category, target uuid.UUID) (*Outcome, error) {
	if target == cat.ID {
		return nil, ErrSameCategory
	}

	dst, err := r.categories.FindByID(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("lookup migration target: %w", err)
	}
	if dst == nil {
		return nil, fmt.Errorf("migration target %s: %w", target, ErrNotFound)
	}

	return r.migrateAndDelete(ctx, cat, dst)
}

// deleteToDefault moves dependents to the reserved default category,
// creating it if absent, then deletes the source.
func (r *Resolver) deleteToDefault(ctx context.Context, cat *models.Category) (*Outcome, error) {
	dst, err := r.categories.FindOrCreateByName(ctx, DefaultCategoryName)
	if err != nil {
		return nil, fmt.Errorf("ensure default category: %w", err)
	}
	if dst.ID == cat.ID {
		// The default category itself cannot be safe-deleted into itself.
		return nil, ErrSameCategory
	}

	return r.migrateAndDelete(ctx, cat, dst)
}

// migrateAndDelete is the shared tail of the two migration modes:
// bulk-rewrite the category reference, then delete the source row.
func (r *Resolver) migrateAndDelete(ctx context.Context, cat, dst *models.Category) (*Outcome, error) {
	migrated, err := r.services.ReassignCategory(ctx, cat.ID, dst.ID)
	if err != nil {
		return nil, &StepError{Completed: StepLookup, Err: err}
	}

	if err := r.categories.Delete(ctx, cat.ID); err != nil {
		// Some services may already point at the target; the source
		// category still exists, so a retry converges.
		return nil, &StepError{Completed: StepServices, Err: err}
	}

	slog.Info("category deleted",
		"category", cat.Name,
		"mode", "migrate",
		"target", dst.Name,
		"services_migrated", migrated,
	)
	return &Outcome{
		Success:          true,
		Message:          fmt.Sprintf("category %q deleted, %d service(s) moved to %q", cat.Name, migrated, dst.Name),
		ServicesMigrated: migrated,
	}, nil
}

// deleteForce removes the category and leaves dependent services with a
// dangling reference. The orphan count is reported so the caller knows
// the inconsistency was created deliberately.
func (r *Resolver) deleteForce(ctx context.Context, cat *models.Category) (*Outcome, error) {
	orphaned, err := r.services.CountByCategory(ctx, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("count services: %w", err)
	}

	if err := r.categories.Delete(ctx, cat.ID); err != nil {
		return nil, &StepError{Completed: StepLookup, Err: err}
	}

	if orphaned > 0 {
		slog.Warn("category force-deleted with dangling services",
			"category", cat.Name,
			"services_orphaned", orphaned,
		)
	} else {
		slog.Info("category deleted", "category", cat.Name, "mode", "force")
	}
	return &Outcome{
		Success:          true,
		Message:          fmt.Sprintf("category %q deleted, %d service(s) left without a category", cat.Name, orphaned),
		ServicesOrphaned: orphaned,
	}, nil
}

// DeletionInfo returns a read-only preview of a deletion: the dependent
// service count and titles, and whether a simple delete would succeed.
// It uses the same dependent-service definition as Delete, so a "safe"
// preview followed by a simple delete is consistent absent concurrent
// writers.
func (r *Resolver) DeletionInfo(ctx context.Context, id uuid.UUID) (*Info, error) {
	cat, err := r.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	if cat == nil {
		return nil, ErrNotFound
	}

	refs, err := r.services.RefsByCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list dependent services: %w", err)
	}

	return &Info{
		CategoryID:      cat.ID,
		CategoryName:    cat.Name,
		ServiceCount:    len(refs),
		Services:        refs,
		CanDeleteSafely: len(refs) == 0,
	}, nil
}

// Reconcile sweeps services whose category no longer exists (dangling
// references left by force deletes) into the default category. Returns
// the number of services moved.
func (r *Resolver) Reconcile(ctx context.Context) (int, error) {
	dst, err := r.categories.FindOrCreateByName(ctx, DefaultCategoryName)
	if err != nil {
		return 0, fmt.Errorf("ensure default category: %w", err)
	}

	moved, err := r.services.ReassignOrphans(ctx, dst.ID)
	if err != nil {
		return 0, fmt.Errorf("reassign orphans: %w", err)
	}

	if moved > 0 {
		slog.Info("orphaned services reconciled", "moved", moved, "target", dst.Name)
	}
	return moved, nil
}

// SimpleDelete deletes the category only if it has no dependent services.
func (r *Resolver) SimpleDelete(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	return r.Delete(ctx, id, Options{})
}

// SafeDelete moves dependents to the default category before deleting.
func (r *Resolver) SafeDelete(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	return r.Delete(ctx, id, Options{CreateDefault: true})
}

// CascadeDelete deletes the category together with its services.
func (r *Resolver) CascadeDelete(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	return r.Delete(ctx, id, Options{Cascade: true})
}

// MigrateDelete moves dependents to target before deleting the category.
func (r *Resolver) MigrateDelete(ctx context.Context, id, target uuid.UUID) (*Outcome, error) {
	return r.Delete(ctx, id, Options{MigrateTo: &target})
}

// ForceDelete deletes the category and leaves dependents dangling.
func (r *Resolver) ForceDelete(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	return r.Delete(ctx, id, Options{Force: true})
}
