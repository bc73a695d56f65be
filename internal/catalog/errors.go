// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a category id (source or migration
	// target) does not resolve to an existing record.
	ErrNotFound = errors.New("category not found")

	// ErrSameCategory is returned when a migration target equals the
	// category being deleted.
	ErrSameCategory = errors.New("migration target equals the category being deleted")
)

// ConflictError is returned when a simple delete is blocked by dependent
// services. Both stores are left untouched; the message tells the caller
// which other modes are available.
type ConflictError struct {
	ServiceCount int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"category has %d dependent service(s); delete them first or retry with cascade, migrate_to, create_default, or force",
		e.ServiceCount,
	)
}

// Step identifies a stage of the delete sequence. The sequence is
// lookup, then the service-side mutation, then the category row delete.
type Step string

const (
	StepLookup   Step = "lookup"
	StepServices Step = "services"
	StepCategory Step = "category"
)

// StepError reports a failure partway through a delete sequence.
// Completed names the last step that was acknowledged by the store, so
// a caller (or a retry) can tell exactly which state the two stores are
// in. A failure after StepServices means services were already migrated
// or deleted while the source category still exists; re-running the same
// mode is safe because the service-side mutation is then a no-op.
type StepError struct {
	Completed Step
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("delete sequence failed after %s step: %v", e.Completed, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
