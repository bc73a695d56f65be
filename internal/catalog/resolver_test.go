// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"servhub/internal/models"
)

// memCatalog is an in-memory test double implementing both the
// CategoryStore and ServiceStore contracts.
type memCatalog struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*models.Category
	services   map[uuid.UUID]*models.Service

	// Injectable failures.
	categoryDeleteErr error
	serviceWriteErr   error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		categories: make(map[uuid.UUID]*models.Category),
		services:   make(map[uuid.UUID]*models.Service),
	}
}

func (m *memCatalog) addCategory(name string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.categories[id] = &models.Category{ID: id, Name: name}
	return id
}

func (m *memCatalog) addService(title string, categoryID uuid.UUID) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.services[id] = &models.Service{ID: id, Title: title, CategoryID: categoryID}
	return id
}

func (m *memCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memCatalog) FindOrCreateByName(_ context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	id := uuid.New()
	m.categories[id] = &models.Category{ID: id, Name: name}
	cp := *m.categories[id]
	return &cp, nil
}

func (m *memCatalog) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.categoryDeleteErr != nil {
		return m.categoryDeleteErr
	}
	delete(m.categories, id)
	return nil
}

func (m *memCatalog) CountByCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.services {
		if s.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *memCatalog) RefsByCategory(_ context.Context, categoryID uuid.UUID) ([]models.ServiceRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var refs []models.ServiceRef
	for _, s := range m.services {
		if s.CategoryID == categoryID {
			refs = append(refs, models.ServiceRef{ID: s.ID, Title: s.Title})
		}
	}
	return refs, nil
}

func (m *memCatalog) DeleteByCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.serviceWriteErr != nil {
		return 0, m.serviceWriteErr
	}
	n := 0
	for id, s := range m.services {
		if s.CategoryID == categoryID {
			delete(m.services, id)
			n++
		}
	}
	return n, nil
}

func (m *memCatalog) ReassignCategory(_ context.Context, from, to uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.serviceWriteErr != nil {
		return 0, m.serviceWriteErr
	}
	n := 0
	for _, s := range m.services {
		if s.CategoryID == from {
			s.CategoryID = to
			n++
		}
	}
	return n, nil
}

func (m *memCatalog) ReassignOrphans(_ context.Context, to uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.services {
		if _, ok := m.categories[s.CategoryID]; !ok {
			s.CategoryID = to
			n++
		}
	}
	return n, nil
}

func (m *memCatalog) categoryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories)
}

func (m *memCatalog) serviceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.services)
}

func TestSimpleDeleteEmptyCategory(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	otherCat := mem.addCategory("Cleaning")
	mem.addService("Window cleaning", otherCat)

	r := NewResolver(mem, mem)
	outcome, err := r.SimpleDelete(context.Background(), id)
	if err != nil {
		t.Fatalf("SimpleDelete: %v", err)
	}
	if !outcome.Success {
		t.Error("expected success")
	}
	if mem.categoryCount() != 1 {
		t.Errorf("categories remaining: got %d, want 1", mem.categoryCount())
	}
	if mem.serviceCount() != 1 {
		t.Errorf("services must be untouched: got %d, want 1", mem.serviceCount())
	}
}

func TestSimpleDeleteConflict(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)
	mem.addService("Drain unblocking", id)

	r := NewResolver(mem, mem)
	_, err := r.SimpleDelete(context.Background(), id)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ServiceCount != 2 {
		t.Errorf("conflict count: got %d, want 2", conflict.ServiceCount)
	}
	if !strings.Contains(conflict.Error(), "cascade") {
		t.Errorf("conflict message should name the other modes: %q", conflict.Error())
	}

	// No mutation on either store.
	if mem.categoryCount() != 1 {
		t.Error("category must not be deleted on conflict")
	}
	if mem.serviceCount() != 2 {
		t.Error("services must not be touched on conflict")
	}
}

func TestDeleteNotFound(t *testing.T) {
	mem := newMemCatalog()
	r := NewResolver(mem, mem)

	_, err := r.SimpleDelete(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCascadeDelete(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)
	mem.addService("Drain unblocking", id)
	mem.addService("Boiler service", id)
	keep := mem.addCategory("Cleaning")
	mem.addService("Window cleaning", keep)

	r := NewResolver(mem, mem)
	outcome, err := r.CascadeDelete(context.Background(), id)
	if err != nil {
		t.Fatalf("CascadeDelete: %v", err)
	}
	if outcome.ServicesDeleted != 3 {
		t.Errorf("services deleted: got %d, want 3", outcome.ServicesDeleted)
	}

	count, _ := mem.CountByCategory(context.Background(), id)
	if count != 0 {
		t.Errorf("dependent count after cascade: got %d, want 0", count)
	}
	if mem.serviceCount() != 1 {
		t.Errorf("unrelated services must survive: got %d, want 1", mem.serviceCount())
	}
}

func TestCascadeDeleteTwice(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)

	r := NewResolver(mem, mem)
	if _, err := r.CascadeDelete(context.Background(), id); err != nil {
		t.Fatalf("first CascadeDelete: %v", err)
	}

	_, err := r.CascadeDelete(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("second CascadeDelete: expected ErrNotFound, got %v", err)
	}
}

func TestMigrateDelete(t *testing.T) {
	mem := newMemCatalog()
	src := mem.addCategory("Plumbing")
	dst := mem.addCategory("Home Repair")
	mem.addService("Pipe repair", src)
	mem.addService("Drain unblocking", src)
	mem.addService("Roof patch", dst)

	r := NewResolver(mem, mem)
	outcome, err := r.MigrateDelete(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("MigrateDelete: %v", err)
	}
	if outcome.ServicesMigrated != 2 {
		t.Errorf("services migrated: got %d, want 2", outcome.ServicesMigrated)
	}

	srcCount, _ := mem.CountByCategory(context.Background(), src)
	if srcCount != 0 {
		t.Errorf("no service may keep the old category id, got %d", srcCount)
	}
	dstCount, _ := mem.CountByCategory(context.Background(), dst)
	if dstCount != 3 {
		t.Errorf("target dependent count: got %d, want 3", dstCount)
	}
}

func TestMigrateDeleteSameTarget(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)

	r := NewResolver(mem, mem)
	_, err := r.MigrateDelete(context.Background(), id, id)
	if !errors.Is(err, ErrSameCategory) {
		t.Fatalf("expected ErrSameCategory, got %v", err)
	}
	if mem.categoryCount() != 1 || mem.serviceCount() != 1 {
		t.Error("no mutation allowed when target equals source")
	}
}

func TestMigrateDeleteTargetMissing(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")

	r := NewResolver(mem, mem)
	_, err := r.MigrateDelete(context.Background(), id, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing target, got %v", err)
	}
	if mem.categoryCount() != 1 {
		t.Error("source category must survive a bad target")
	}
}

func TestSafeDeleteCreatesDefaultCategory(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)
	mem.addService("Drain unblocking", id)

	r := NewResolver(mem, mem)
	outcome, err := r.SafeDelete(context.Background(), id)
	if err != nil {
		t.Fatalf("SafeDelete: %v", err)
	}
	if outcome.ServicesMigrated != 2 {
		t.Errorf("services migrated: got %d, want 2", outcome.ServicesMigrated)
	}

	def, err := mem.FindOrCreateByName(context.Background(), DefaultCategoryName)
	if err != nil {
		t.Fatalf("FindOrCreateByName: %v", err)
	}
	count, _ := mem.CountByCategory(context.Background(), def.ID)
	if count != 2 {
		t.Errorf("default category dependent count: got %d, want 2", count)
	}
}

func TestSafeDeleteConvergesOnOneDefault(t *testing.T) {
	mem := newMemCatalog()
	// Pre-existing default differing only by case.
	mem.addCategory("uncategorized")
	a := mem.addCategory("Plumbing")
	b := mem.addCategory("Cleaning")
	mem.addService("Pipe repair", a)
	mem.addService("Window cleaning", b)

	r := NewResolver(mem, mem)
	if _, err := r.SafeDelete(context.Background(), a); err != nil {
		t.Fatalf("SafeDelete a: %v", err)
	}
	if _, err := r.SafeDelete(context.Background(), b); err != nil {
		t.Fatalf("SafeDelete b: %v", err)
	}

	// Only the case-insensitive singleton remains.
	if mem.categoryCount() != 1 {
		t.Fatalf("expected a single default category, got %d", mem.categoryCount())
	}
	def, _ := mem.FindOrCreateByName(context.Background(), DefaultCategoryName)
	count, _ := mem.CountByCategory(context.Background(), def.ID)
	if count != 2 {
		t.Errorf("default category dependent count: got %d, want 2", count)
	}
}

func TestSafeDeleteDefaultItself(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory(DefaultCategoryName)

	r := NewResolver(mem, mem)
	_, err := r.SafeDelete(context.Background(), id)
	if !errors.Is(err, ErrSameCategory) {
		t.Fatalf("expected ErrSameCategory, got %v", err)
	}
}

func TestForceDeleteLeavesOrphans(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)
	mem.addService("Drain unblocking", id)

	r := NewResolver(mem, mem)
	outcome, err := r.ForceDelete(context.Background(), id)
	if err != nil {
		t.Fatalf("ForceDelete: %v", err)
	}
	if outcome.ServicesOrphaned != 2 {
		t.Errorf("orphaned count: got %d, want 2", outcome.ServicesOrphaned)
	}
	if mem.serviceCount() != 2 {
		t.Error("force delete must not touch services")
	}

	// The sweep moves orphans into the default category.
	moved, err := r.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if moved != 2 {
		t.Errorf("reconciled: got %d, want 2", moved)
	}
	def, _ := mem.FindOrCreateByName(context.Background(), DefaultCategoryName)
	count, _ := mem.CountByCategory(context.Background(), def.ID)
	if count != 2 {
		t.Errorf("default category dependent count: got %d, want 2", count)
	}
}

func TestDeletionInfo(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)
	mem.addService("Drain unblocking", id)

	r := NewResolver(mem, mem)
	info, err := r.DeletionInfo(context.Background(), id)
	if err != nil {
		t.Fatalf("DeletionInfo: %v", err)
	}
	if info.CategoryName != "Plumbing" {
		t.Errorf("category name: got %q", info.CategoryName)
	}
	if info.ServiceCount != 2 || info.CanDeleteSafely {
		t.Errorf("got count=%d safe=%v, want count=2 safe=false", info.ServiceCount, info.CanDeleteSafely)
	}

	// Order-independent title check.
	titles := map[string]bool{}
	for _, ref := range info.Services {
		titles[ref.Title] = true
	}
	if !titles["Pipe repair"] || !titles["Drain unblocking"] || len(titles) != 2 {
		t.Errorf("unexpected service titles: %v", titles)
	}

	// A read must not mutate anything.
	if mem.categoryCount() != 1 || mem.serviceCount() != 2 {
		t.Error("DeletionInfo must be read-only")
	}
}

func TestDeletionInfoEmptyCategory(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")

	r := NewResolver(mem, mem)
	info, err := r.DeletionInfo(context.Background(), id)
	if err != nil {
		t.Fatalf("DeletionInfo: %v", err)
	}
	if !info.CanDeleteSafely || info.ServiceCount != 0 {
		t.Errorf("empty category must be safe to delete: %+v", info)
	}
}

func TestDeletionInfoNotFound(t *testing.T) {
	mem := newMemCatalog()
	r := NewResolver(mem, mem)

	_, err := r.DeletionInfo(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStepErrorAfterServiceMutation(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)
	mem.categoryDeleteErr = errors.New("connection reset")

	r := NewResolver(mem, mem)
	_, err := r.CascadeDelete(context.Background(), id)

	var step *StepError
	if !errors.As(err, &step) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if step.Completed != StepServices {
		t.Errorf("completed step: got %q, want %q", step.Completed, StepServices)
	}
	// Services are gone, the category survived — retrying converges.
	if mem.serviceCount() != 0 {
		t.Error("services should already be deleted")
	}
	if mem.categoryCount() != 1 {
		t.Error("category must survive the failed delete")
	}

	mem.categoryDeleteErr = nil
	outcome, err := r.CascadeDelete(context.Background(), id)
	if err != nil {
		t.Fatalf("retry CascadeDelete: %v", err)
	}
	if outcome.ServicesDeleted != 0 {
		t.Errorf("retry must be a no-op on services, got %d", outcome.ServicesDeleted)
	}
	if mem.categoryCount() != 0 {
		t.Error("retry must delete the category")
	}
}

func TestStepErrorBeforeServiceMutation(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)
	mem.serviceWriteErr = errors.New("timeout")

	r := NewResolver(mem, mem)
	_, err := r.CascadeDelete(context.Background(), id)

	var step *StepError
	if !errors.As(err, &step) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if step.Completed != StepLookup {
		t.Errorf("completed step: got %q, want %q", step.Completed, StepLookup)
	}
	if mem.categoryCount() != 1 || mem.serviceCount() != 1 {
		t.Error("both stores must be intact when the service mutation fails")
	}
}

func TestConcurrentDeleteSameCategory(t *testing.T) {
	mem := newMemCatalog()
	id := mem.addCategory("Plumbing")
	mem.addService("Pipe repair", id)

	r := NewResolver(mem, mem)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.CascadeDelete(context.Background(), id)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("exactly one concurrent delete may succeed, got %d", succeeded)
	}
}
