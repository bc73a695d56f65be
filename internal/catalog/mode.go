// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import "github.com/google/uuid"

// Mode is the closed set of category deletion strategies. Exactly one
// mode applies to a deletion; the switch in Resolver.Delete handles
// every variant.
type Mode interface {
	isMode()
}

// Simple deletes the category only if no services depend on it.
type Simple struct{}

// Cascade deletes the category together with all dependent services.
type Cascade struct{}

// MigrateTo moves all dependent services to an existing target category
// before deleting the source.
type MigrateTo struct {
	Target uuid.UUID
}

// CreateDefault moves all dependent services to the reserved default
// category (created on demand) before deleting the source.
type CreateDefault struct{}

// Force deletes the category and leaves dependent services with a
// dangling category reference. The orphans are picked up later by the
// reconciliation sweep.
type Force struct{}

func (Simple) isMode()        {}
func (Cascade) isMode()       {}
func (MigrateTo) isMode()     {}
func (CreateDefault) isMode() {}
func (Force) isMode()         {}

// Options is the flag-style deletion request accepted at the API edge.
// Callers are expected to set at most one flag; Mode collapses the set
// into a single strategy.
type Options struct {
	Cascade       bool       `json:"cascade,omitempty"`
	MigrateTo     *uuid.UUID `json:"migrate_to,omitempty"`
	CreateDefault bool       `json:"create_default,omitempty"`
	Force         bool       `json:"force,omitempty"`
}

// Mode resolves the flag set into one strategy. When a caller
// erroneously sets more than one flag, the most specific intent wins:
// cascade, then an explicit migration target, then the default
// category, then force. No flags means a simple (safe-refusal) delete.
func (o Options) Mode() Mode {
	switch {
	case o.Cascade:
		return Cascade{}
	case o.MigrateTo != nil:
		return MigrateTo{Target: *o.MigrateTo}
	case o.CreateDefault:
		return CreateDefault{}
	case o.Force:
		return Force{}
	default:
		return Simple{}
	}
}
