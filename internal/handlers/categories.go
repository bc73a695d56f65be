// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"servhub/internal/cache"
	"servhub/internal/catalog"
	"servhub/internal/models"
	"servhub/internal/store"
)

// Categories groups the catalog category HTTP handlers. Deletion never
// touches the store directly; every delete goes through the resolver.
type Categories struct {
	categoryStore *store.CategoryStore
	resolver      *catalog.Resolver
	catalogCache  *cache.CatalogCache
}

// NewCategories creates a new Categories handler group.
// catalogCache may be nil when Valkey is not configured.
func NewCategories(categoryStore *store.CategoryStore, resolver *catalog.Resolver, catalogCache *cache.CatalogCache) *Categories {
	return &Categories{
		categoryStore: categoryStore,
		resolver:      resolver,
		catalogCache:  catalogCache,
	}
}

// List returns all categories with their dependent-service counts.
// The serialized response is cached in Valkey.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.catalogCache != nil {
		if body, ok := h.catalogCache.Get(ctx, cache.CategoryListKey()); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	categories, err := h.categoryStore.List(ctx)
	if err != nil {
		slog.Error("list categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list categories")
		return
	}

	body, err := json.Marshal(map[string]any{"categories": categories})
	if err != nil {
		slog.Error("marshal categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list categories")
		return
	}

	if h.catalogCache != nil {
		h.catalogCache.Set(ctx, cache.CategoryListKey(), body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// categoryRequest is the JSON body for create and update.
type categoryRequest struct {
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	ImageURL    *string     `json:"image_url"`
	Tags        models.Tags `json:"tags"`
}

// Create adds a new category. Names are unique ignoring case.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if msg := validateCategory(req.Name, req.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	// Reject duplicates up front for a clean 409; the unique index is
	// the real guarantee.
	existing, err := h.categoryStore.FindByName(r.Context(), req.Name)
	if err != nil {
		slog.Error("category name lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create category")
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "a category with this name already exists")
		return
	}

	created, err := h.categoryStore.Create(r.Context(), &models.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
	})
	if err != nil {
		slog.Error("create category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create category")
		return
	}

	h.invalidate(r)
	respondJSON(w, http.StatusCreated, created)
}

// Get returns one category by id.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	cat, err := h.categoryStore.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not load category")
		return
	}
	if cat == nil {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}

	respondJSON(w, http.StatusOK, cat)
}

// Update modifies a category's name, slug, description, image, or tags.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if msg := validateCategory(req.Name, req.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	cat, err := h.categoryStore.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not load category")
		return
	}
	if cat == nil {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}

	cat.Name = req.Name
	if req.Slug != "" {
		cat.Slug = req.Slug
	}
	cat.Description = req.Description
	cat.ImageURL = req.ImageURL
	cat.Tags = req.Tags

	if err := h.categoryStore.Update(r.Context(), cat); err != nil {
		slog.Error("update category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not update category")
		return
	}

	h.invalidate(r)
	respondJSON(w, http.StatusOK, cat)
}

// Delete removes a category through the resolver. The deletion mode is
// read from query parameters: cascade, migrate_to, create_default, and
// force. Without any of them, the delete succeeds only for an empty
// category.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	opts, err := deleteOptionsFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.resolver.Delete(r.Context(), id, opts)
	if err != nil {
		h.respondDeleteError(w, err)
		return
	}

	h.invalidate(r)
	respondJSON(w, http.StatusOK, outcome)
}

// DeletionInfo returns a read-only preview of what deleting the category
// would do: dependent count, service titles, and whether a plain delete
// would go through.
func (h *Categories) DeletionInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	info, err := h.resolver.DeletionInfo(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		slog.Error("deletion info failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not compute deletion info")
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// bulkDeleteRequest is the JSON body for bulk category deletion. The
// same options apply to every id.
type bulkDeleteRequest struct {
	IDs     []uuid.UUID     `json:"ids"`
	Options catalog.Options `json:"options"`
}

// BulkDelete deletes a batch of categories. Individual failures are
// reported in the response body; the batch itself always returns 200.
func (h *Categories) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids must not be empty")
		return
	}

	result := h.resolver.BulkDelete(r.Context(), req.IDs, req.Options)

	h.invalidate(r)
	respondJSON(w, http.StatusOK, result)
}

// Reconcile sweeps services left dangling by force deletes into the
// default category. Admin-only, wired behind RequireAdmin.
func (h *Categories) Reconcile(w http.ResponseWriter, r *http.Request) {
	moved, err := h.resolver.Reconcile(r.Context())
	if err != nil {
		slog.Error("reconcile failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not reconcile orphaned services")
		return
	}

	h.invalidate(r)
	respondJSON(w, http.StatusOK, map[string]int{"services_moved": moved})
}

// respondDeleteError maps resolver errors onto HTTP status codes.
func (h *Categories) respondDeleteError(w http.ResponseWriter, err error) {
	var conflict *catalog.ConflictError
	var step *catalog.StepError

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrSameCategory):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":         conflict.Error(),
			"service_count": conflict.ServiceCount,
		})
	case errors.As(err, &step):
		slog.Error("category delete failed mid-sequence", "completed_step", step.Completed, "error", step.Err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error":          "deletion failed partway; retrying the same request is safe",
			"completed_step": string(step.Completed),
		})
	default:
		slog.Error("category delete failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not delete category")
	}
}

// deleteOptionsFromQuery builds catalog.Options from query parameters.
// Boolean flags accept "true"/"1"; migrate_to must be a valid UUID.
func deleteOptionsFromQuery(r *http.Request) (catalog.Options, error) {
	q := r.URL.Query()
	opts := catalog.Options{
		Cascade:       q.Get("cascade") == "true" || q.Get("cascade") == "1",
		CreateDefault: q.Get("create_default") == "true" || q.Get("create_default") == "1",
		Force:         q.Get("force") == "true" || q.Get("force") == "1",
	}

	if raw := q.Get("migrate_to"); raw != "" {
		target, err := uuid.Parse(raw)
		if err != nil {
			return catalog.Options{}, errors.New("migrate_to must be a valid category id")
		}
		opts.MigrateTo = &target
	}

	return opts, nil
}

// parseID extracts and validates the {id} URL parameter. On failure it
// writes a 400 and returns ok=false.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// invalidate clears cached catalog responses after a mutation. A
// category delete can touch the list plus any number of service
// listings, so everything under the prefix goes.
func (h *Categories) invalidate(r *http.Request) {
	if h.catalogCache != nil {
		h.catalogCache.InvalidateAll(r.Context())
	}
}
