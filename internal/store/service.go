// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"servhub/internal/models"
	"servhub/internal/slug"
)

// ServiceStore manages marketplace services in the database. It
// implements the catalog.ServiceStore contract; bulk rewrites of
// category_id happen only on behalf of the catalog resolver.
type ServiceStore struct {
	db *sql.DB
}

// NewServiceStore returns a new ServiceStore.
func NewServiceStore(db *sql.DB) *ServiceStore {
	return &ServiceStore{db: db}
}

const serviceColumns = `id, title, slug, description, description_html, category_id, provider_id,
	price_cents, active, popular, tags, image_url, created_at, updated_at`

// scanService scans a row into a Service struct.
func scanService(scanner interface{ Scan(...any) error }) (*models.Service, error) {
	var sv models.Service
	err := scanner.Scan(
		&sv.ID, &sv.Title, &sv.Slug, &sv.Description, &sv.DescriptionHTML,
		&sv.CategoryID, &sv.ProviderID, &sv.PriceCents, &sv.Active, &sv.Popular,
		&sv.Tags, &sv.ImageURL, &sv.CreatedAt, &sv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sv, nil
}

// scanServices drains a multi-row result set.
func scanServices(rows *sql.Rows) ([]models.Service, error) {
	defer rows.Close()
	var items []models.Service
	for rows.Next() {
		sv, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		items = append(items, *sv)
	}
	return items, rows.Err()
}

// List returns all services, newest first.
func (s *ServiceStore) List(ctx context.Context) ([]models.Service, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return scanServices(rows)
}

// ListByCategory returns all services belonging to a category.
func (s *ServiceStore) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+serviceColumns+` FROM services WHERE category_id = $1 ORDER BY created_at DESC
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list services by category: %w", err)
	}
	return scanServices(rows)
}

// ListByProvider returns all services listed by a provider.
func (s *ServiceStore) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+serviceColumns+` FROM services WHERE provider_id = $1 ORDER BY created_at DESC
	`, providerID)
	if err != nil {
		return nil, fmt.Errorf("list services by provider: %w", err)
	}
	return scanServices(rows)
}

// FindByID retrieves a service by ID. Returns nil if not found. The
// Orphaned virtual field is set when the category reference dangles.
func (s *ServiceStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sv.id, sv.title, sv.slug, sv.description, sv.description_html,
		       sv.category_id, sv.provider_id, sv.price_cents, sv.active, sv.popular,
		       sv.tags, sv.image_url, sv.created_at, sv.updated_at,
		       c.id IS NULL AS orphaned
		FROM services sv
		LEFT JOIN categories c ON c.id = sv.category_id
		WHERE sv.id = $1
	`, id)

	var sv models.Service
	err := row.Scan(
		&sv.ID, &sv.Title, &sv.Slug, &sv.Description, &sv.DescriptionHTML,
		&sv.CategoryID, &sv.ProviderID, &sv.PriceCents, &sv.Active, &sv.Popular,
		&sv.Tags, &sv.ImageURL, &sv.CreatedAt, &sv.UpdatedAt,
		&sv.Orphaned,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find service by id: %w", err)
	}
	return &sv, nil
}

// Create inserts a new service and returns it. The slug is derived from
// the title when not set.
func (s *ServiceStore) Create(ctx context.Context, sv *models.Service) (*models.Service, error) {
	if sv.Slug == "" {
		sv.Slug = slug.Generate(sv.Title)
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO services (title, slug, description, description_html, category_id,
			provider_id, price_cents, active, popular, tags, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+serviceColumns,
		sv.Title, sv.Slug, sv.Description, sv.DescriptionHTML, sv.CategoryID,
		sv.ProviderID, sv.PriceCents, sv.Active, sv.Popular, sv.Tags, sv.ImageURL,
	)
	result, err := scanService(row)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return result, nil
}

// Update modifies an existing service's editable fields. The category
// reference is rewritten here only for single-service edits; bulk
// rewrites go through ReassignCategory.
func (s *ServiceStore) Update(ctx context.Context, sv *models.Service) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE services SET
			title = $1, slug = $2, description = $3, description_html = $4,
			category_id = $5, price_cents = $6, active = $7, popular = $8,
			tags = $9, image_url = $10, updated_at = NOW()
		WHERE id = $11
	`, sv.Title, sv.Slug, sv.Description, sv.DescriptionHTML,
		sv.CategoryID, sv.PriceCents, sv.Active, sv.Popular,
		sv.Tags, sv.ImageURL, sv.ID)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	return nil
}

// Delete removes a single service by ID.
func (s *ServiceStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

// CountByCategory returns the number of services referencing a category.
func (s *ServiceStore) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM services WHERE category_id = $1
	`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count services by category: %w", err)
	}
	return n, nil
}

// RefsByCategory returns id+title projections of every service
// referencing a category, for deletion previews.
func (s *ServiceStore) RefsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.ServiceRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title FROM services WHERE category_id = $1 ORDER BY title
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list service refs: %w", err)
	}
	defer rows.Close()

	var refs []models.ServiceRef
	for rows.Next() {
		var ref models.ServiceRef
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, fmt.Errorf("scan service ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// DeleteByCategory removes every service referencing a category and
// returns the number of rows deleted. Used by cascade deletion.
func (s *ServiceStore) DeleteByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE category_id = $1`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("delete services by category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete services rows affected: %w", err)
	}
	return int(n), nil
}

// ReassignCategory bulk-rewrites the category reference of every service
// under from to to, returning the number of rows modified. Used by the
// migration deletion modes.
func (s *ServiceStore) ReassignCategory(ctx context.Context, from, to uuid.UUID) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE services SET category_id = $1, updated_at = NOW() WHERE category_id = $2
	`, to, from)
	if err != nil {
		return 0, fmt.Errorf("reassign services: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign services rows affected: %w", err)
	}
	return int(n), nil
}

// ReassignOrphans moves every service whose category no longer exists
// to the given category, returning the number of rows modified. Used by
// the reconciliation sweep after force deletes.
func (s *ServiceStore) ReassignOrphans(ctx context.Context, to uuid.UUID) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE services sv SET category_id = $1, updated_at = NOW()
		WHERE NOT EXISTS (SELECT 1 FROM categories c WHERE c.id = sv.category_id)
	`, to)
	if err != nil {
		return 0, fmt.Errorf("reassign orphans: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign orphans rows affected: %w", err)
	}
	return int(n), nil
}

// ListOrphaned returns services whose category reference dangles.
func (s *ServiceStore) ListOrphaned(ctx context.Context) ([]models.Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sv.id, sv.title, sv.slug, sv.description, sv.description_html,
		       sv.category_id, sv.provider_id, sv.price_cents, sv.active, sv.popular,
		       sv.tags, sv.image_url, sv.created_at, sv.updated_at
		FROM services sv
		LEFT JOIN categories c ON c.id = sv.category_id
		WHERE c.id IS NULL
		ORDER BY sv.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list orphaned services: %w", err)
	}
	items, err := scanServices(rows)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Orphaned = true
	}
	return items, nil
}

// Count returns the total number of services.
func (s *ServiceStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count services: %w", err)
	}
	return n, nil
}
