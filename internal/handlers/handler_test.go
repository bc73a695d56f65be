// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"servhub/internal/cache"
	"servhub/internal/catalog"
	"servhub/internal/database"
	"servhub/internal/middleware"
	"servhub/internal/models"
	"servhub/internal/session"
	"servhub/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "servhub")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "servhub")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "catalog:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Sessions      *session.Store
	CategoryStore *store.CategoryStore
	ServiceStore  *store.ServiceStore
	UserStore     *store.UserStore
	Resolver      *catalog.Resolver
	CatalogCache  *cache.CatalogCache
	Categories    *Categories
	Services      *Services
	Auth          *Auth
	Users         *Users
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	categoryStore := store.NewCategoryStore(db)
	serviceStore := store.NewServiceStore(db)
	userStore := store.NewUserStore(db)
	resolver := catalog.NewResolver(categoryStore, serviceStore)
	catalogCache := cache.NewCatalogCache(vk, 1*time.Minute)

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Sessions:      sessions,
		CategoryStore: categoryStore,
		ServiceStore:  serviceStore,
		UserStore:     userStore,
		Resolver:      resolver,
		CatalogCache:  catalogCache,
		Categories:    NewCategories(categoryStore, resolver, catalogCache),
		Services:      NewServices(serviceStore, categoryStore, nil, catalogCache),
		Auth:          NewAuth(sessions, userStore),
		Users:         NewUsers(userStore),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// testProvider creates a provider account for service ownership tests
// and schedules its removal.
func testProvider(t *testing.T, env *testEnv) *models.User {
	t.Helper()

	email := "provider-" + uuid.NewString()[:8] + "@handlers.test"
	user, err := env.UserStore.Create(context.Background(), email, "password123", "Handler Test Provider", models.RoleProvider)
	if err != nil {
		t.Fatalf("create test provider: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM users WHERE id = $1", user.ID)
	})
	return user
}

// testCategory creates a category with a unique name and schedules its
// removal (along with any services left under it).
func testCategory(t *testing.T, env *testEnv, name string) *models.Category {
	t.Helper()

	unique := name + " " + uuid.NewString()[:8]
	cat, err := env.CategoryStore.Create(context.Background(), &models.Category{
		Name:        unique,
		Description: "handler test category",
	})
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM services WHERE category_id = $1", cat.ID)
		env.DB.Exec("DELETE FROM categories WHERE id = $1", cat.ID)
	})
	return cat
}

// testService creates a service under the given category and provider.
func testService(t *testing.T, env *testEnv, categoryID, providerID uuid.UUID, title string) *models.Service {
	t.Helper()

	sv, err := env.ServiceStore.Create(context.Background(), &models.Service{
		Title:       title,
		Slug:        "svc-" + uuid.NewString()[:8],
		Description: "handler test service",
		CategoryID:  categoryID,
		ProviderID:  providerID,
		PriceCents:  5000,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("create test service: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM services WHERE id = $1", sv.ID)
	})
	return sv
}
