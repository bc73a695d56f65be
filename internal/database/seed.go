package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin user, the reserved Uncategorized category, and a handful of
// starter categories. The admin will be prompted to set up 2FA on first
// login (totp_enabled = false). Seeding is a no-op when users already exist.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// Hash the default admin password.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// Insert default admin user. 2FA is not enabled — they must set it up
	// on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@servhub.local", string(hash), "Admin", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	// Starter categories. Uncategorized is the reserved target for safe
	// deletes and reconciliation; seeding it up front keeps its casing
	// canonical.
	categories := []struct {
		name, slug, description string
	}{
		{"Uncategorized", "uncategorized", "Services without an assigned category"},
		{"Home Repair", "home-repair", "Plumbing, electrics, and general fixes"},
		{"Cleaning", "cleaning", "Residential and office cleaning"},
		{"Tutoring", "tutoring", "Private lessons and exam preparation"},
	}
	for _, c := range categories {
		_, err := db.Exec(`
			INSERT INTO categories (name, slug, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (LOWER(name)) DO NOTHING
		`, c.name, c.slug, c.description)
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", c.name, err)
		}
	}

	slog.Info("database seeded with default admin user and starter categories",
		"email", "admin@servhub.local",
		"password", "admin",
	)

	return nil
}
