// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestUserDelete(t *testing.T) {
	env := newTestEnv(t)
	victim := testProvider(t, env)
	adminID := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+victim.ID.String(), nil)
	req = withChiURLParamAndSession(req, "id", victim.ID.String(),
		testSession(adminID, "admin@handlers.test", "admin", true))
	rr := httptest.NewRecorder()
	env.Users.Delete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}

	got, err := env.UserStore.FindByID(context.Background(), victim.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got != nil {
		t.Error("user should have been deleted")
	}
}

func TestUserDeleteSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := testProvider(t, env)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+admin.ID.String(), nil)
	req = withChiURLParamAndSession(req, "id", admin.ID.String(),
		testSession(admin.ID, admin.Email, "admin", true))
	rr := httptest.NewRecorder()
	env.Users.Delete(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}

	got, err := env.UserStore.FindByID(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got == nil {
		t.Error("self-delete must not remove the account")
	}
}

func TestUserResetTwoFA(t *testing.T) {
	env := newTestEnv(t)
	provider := testProvider(t, env)

	ctx := context.Background()
	if err := env.UserStore.SetTOTPSecret(ctx, provider.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set secret: %v", err)
	}
	if err := env.UserStore.EnableTOTP(ctx, provider.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/"+provider.ID.String()+"/reset-2fa", nil)
	req = withChiURLParamAndSession(req, "id", provider.ID.String(),
		testSession(uuid.New(), "admin@handlers.test", "admin", true))
	rr := httptest.NewRecorder()
	env.Users.ResetTwoFA(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}

	got, err := env.UserStore.FindByID(ctx, provider.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got == nil {
		t.Fatal("user disappeared")
	}
	if got.TOTPEnabled || got.TOTPSecret != nil {
		t.Error("reset should clear the TOTP enrollment")
	}
}
