// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Service represents a sellable offering listed by a provider. A service
// references its category by ID; the reference is enforced by the catalog
// deletion logic rather than a database constraint, because force-mode
// category deletion is allowed to leave it dangling.
type Service struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"description_html"`
	CategoryID      uuid.UUID `json:"category_id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	PriceCents      int       `json:"price_cents"`
	Active          bool      `json:"active"`
	Popular         bool      `json:"popular"`
	Tags            Tags      `json:"tags"`
	ImageURL        *string   `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Orphaned is a virtual field set when the service's category no
	// longer exists (a dangling reference left by a force delete).
	Orphaned bool `json:"orphaned,omitempty"`
}

// ServiceRef is a minimal id+title projection of a service, used in
// deletion previews where the full record is not needed.
type ServiceRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}
