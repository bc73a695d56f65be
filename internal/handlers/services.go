// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"

	"servhub/internal/cache"
	"servhub/internal/markdown"
	"servhub/internal/middleware"
	"servhub/internal/models"
	"servhub/internal/slug"
	"servhub/internal/storage"
	"servhub/internal/store"
)

// Services groups the service listing HTTP handlers. Providers manage
// their own listings; admins may manage any.
type Services struct {
	serviceStore  *store.ServiceStore
	categoryStore *store.CategoryStore
	storageClient *storage.Client
	catalogCache  *cache.CatalogCache
}

// NewServices creates a new Services handler group.
// storageClient and catalogCache may be nil when S3 or Valkey are not
// configured; image upload then responds 503.
func NewServices(serviceStore *store.ServiceStore, categoryStore *store.CategoryStore, storageClient *storage.Client, catalogCache *cache.CatalogCache) *Services {
	return &Services{
		serviceStore:  serviceStore,
		categoryStore: categoryStore,
		storageClient: storageClient,
		catalogCache:  catalogCache,
	}
}

// List returns services, optionally filtered by category via the
// category_id query parameter. Per-category listings are cached.
func (h *Services) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "category_id must be a valid id")
			return
		}

		services, err := h.serviceStore.ListByCategory(ctx, categoryID)
		if err != nil {
			slog.Error("list services by category failed", "error", err)
			respondError(w, http.StatusInternalServerError, "could not list services")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"services": services})
		return
	}

	services, err := h.serviceStore.List(ctx)
	if err != nil {
		slog.Error("list services failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list services")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"services": services})
}

// ListMine returns the authenticated provider's own services.
func (h *Services) ListMine(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	services, err := h.serviceStore.ListByProvider(r.Context(), sess.UserID)
	if err != nil {
		slog.Error("list provider services failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list services")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"services": services})
}

// ListOrphaned returns services whose category no longer exists.
// Admin-only; used to inspect the damage before running a reconcile.
func (h *Services) ListOrphaned(w http.ResponseWriter, r *http.Request) {
	services, err := h.serviceStore.ListOrphaned(r.Context())
	if err != nil {
		slog.Error("list orphaned services failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list orphaned services")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"services": services})
}

// Get returns one service by id.
func (h *Services) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sv, err := h.serviceStore.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find service failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not load service")
		return
	}
	if sv == nil {
		respondError(w, http.StatusNotFound, "service not found")
		return
	}

	respondJSON(w, http.StatusOK, sv)
}

// serviceRequest is the JSON body for create and update. Description is
// Markdown; the rendered HTML is stored alongside it.
type serviceRequest struct {
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	CategoryID  uuid.UUID   `json:"category_id"`
	PriceCents  int         `json:"price_cents"`
	Active      bool        `json:"active"`
	Popular     bool        `json:"popular"`
	Tags        models.Tags `json:"tags"`
}

// Create adds a new service listing owned by the authenticated provider.
// The category must exist at creation time.
func (h *Services) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req serviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if msg := validateService(req.Title, req.Description, req.PriceCents); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	cat, err := h.categoryStore.FindByID(r.Context(), req.CategoryID)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create service")
		return
	}
	if cat == nil {
		respondError(w, http.StatusBadRequest, "category does not exist")
		return
	}

	descHTML, err := markdown.ToHTML(req.Description)
	if err != nil {
		respondError(w, http.StatusBadRequest, "description could not be rendered")
		return
	}

	serviceSlug := req.Slug
	if serviceSlug == "" {
		serviceSlug = slug.Generate(req.Title)
	}

	created, err := h.serviceStore.Create(r.Context(), &models.Service{
		Title:           req.Title,
		Slug:            serviceSlug,
		Description:     req.Description,
		DescriptionHTML: descHTML,
		CategoryID:      req.CategoryID,
		ProviderID:      sess.UserID,
		PriceCents:      req.PriceCents,
		Active:          req.Active,
		Popular:         req.Popular,
		Tags:            req.Tags,
	})
	if err != nil {
		slog.Error("create service failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create service")
		return
	}

	h.invalidate(r, req.CategoryID)
	respondJSON(w, http.StatusCreated, created)
}

// Update modifies a service. Only the owning provider or an admin may
// update a listing.
func (h *Services) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sv, ok := h.loadOwned(w, r, id)
	if !ok {
		return
	}

	var req serviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if msg := validateService(req.Title, req.Description, req.PriceCents); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	cat, err := h.categoryStore.FindByID(r.Context(), req.CategoryID)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not update service")
		return
	}
	if cat == nil {
		respondError(w, http.StatusBadRequest, "category does not exist")
		return
	}

	descHTML, err := markdown.ToHTML(req.Description)
	if err != nil {
		respondError(w, http.StatusBadRequest, "description could not be rendered")
		return
	}

	oldCategory := sv.CategoryID

	sv.Title = req.Title
	if req.Slug != "" {
		sv.Slug = req.Slug
	}
	sv.Description = req.Description
	sv.DescriptionHTML = descHTML
	sv.CategoryID = req.CategoryID
	sv.PriceCents = req.PriceCents
	sv.Active = req.Active
	sv.Popular = req.Popular
	sv.Tags = req.Tags

	if err := h.serviceStore.Update(r.Context(), sv); err != nil {
		slog.Error("update service failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not update service")
		return
	}

	h.invalidate(r, oldCategory, sv.CategoryID)
	respondJSON(w, http.StatusOK, sv)
}

// Delete removes a single service listing.
func (h *Services) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sv, ok := h.loadOwned(w, r, id)
	if !ok {
		return
	}

	if err := h.serviceStore.Delete(r.Context(), id); err != nil {
		slog.Error("delete service failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not delete service")
		return
	}

	h.invalidate(r, sv.CategoryID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadImage stores a service image in S3 and records its public URL.
// Expects a multipart form with a "file" field.
func (h *Services) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.storageClient == nil {
		respondError(w, http.StatusServiceUnavailable, "file storage is not configured")
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sv, ok := h.loadOwned(w, r, id)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		respondError(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	key := fmt.Sprintf("services/%s/%s%s", sv.ID, uuid.New(), ext)
	contentType := header.Header.Get("Content-Type")

	if err := h.storageClient.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		slog.Error("image upload failed", "error", err, "key", key)
		respondError(w, http.StatusInternalServerError, "could not store image")
		return
	}

	// Best effort: remove the replaced image from the bucket.
	if sv.ImageURL != nil {
		if oldKey, ok := h.storageClient.ExtractS3Key(*sv.ImageURL); ok {
			if err := h.storageClient.Delete(r.Context(), oldKey); err != nil {
				slog.Warn("old image cleanup failed", "error", err, "key", oldKey)
			}
		}
	}

	url := h.storageClient.FileURL(key)
	sv.ImageURL = &url
	if err := h.serviceStore.Update(r.Context(), sv); err != nil {
		slog.Error("save image url failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not save image")
		return
	}

	h.invalidate(r, sv.CategoryID)
	respondJSON(w, http.StatusOK, map[string]string{"image_url": url})
}

// loadOwned loads the service and enforces ownership: the owning
// provider or an admin. Writes the error response itself on failure.
func (h *Services) loadOwned(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*models.Service, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	sv, err := h.serviceStore.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find service failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not load service")
		return nil, false
	}
	if sv == nil {
		respondError(w, http.StatusNotFound, "service not found")
		return nil, false
	}

	if sv.ProviderID != sess.UserID && sess.Role != "admin" {
		respondError(w, http.StatusForbidden, "you do not own this service")
		return nil, false
	}

	return sv, true
}

// invalidate clears the category list plus the affected per-category
// listings after a service mutation.
func (h *Services) invalidate(r *http.Request, categoryIDs ...uuid.UUID) {
	if h.catalogCache == nil {
		return
	}
	ctx := r.Context()
	h.catalogCache.InvalidateCategoryList(ctx)
	for _, id := range categoryIDs {
		h.catalogCache.InvalidateCategory(ctx, id.String())
	}
}
