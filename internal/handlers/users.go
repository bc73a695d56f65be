// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"servhub/internal/middleware"
	"servhub/internal/store"
)

// Users groups the admin user-management handlers.
type Users struct {
	userStore *store.UserStore
}

// NewUsers creates a new Users handler group.
func NewUsers(userStore *store.UserStore) *Users {
	return &Users{userStore: userStore}
}

// List returns all accounts. Admin-only.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.List(r.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list users")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// ResetTwoFA clears a user's TOTP enrollment so they re-enroll on next
// login. Admin-only.
func (h *Users) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.userStore.ResetTOTP(r.Context(), id); err != nil {
		slog.Error("reset totp failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not reset 2FA")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "2fa_reset"})
}

// Delete removes an account. Admins cannot delete themselves.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.UserID == id {
		respondError(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}

	if err := h.userStore.Delete(r.Context(), id); err != nil {
		slog.Error("delete user failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not delete user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
