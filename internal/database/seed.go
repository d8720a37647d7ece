package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"bloghub/internal/slug"
)

// defaultCategories are created on a fresh development database.
var defaultCategories = []string{"General", "Engineering", "Announcements"}

// Seed populates the database with initial development data: a demo
// author account and a few categories. It does nothing if any user exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
	`, "demo", "demo@bloghub.local", string(hash), "Demo", "Author")
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	for _, title := range defaultCategories {
		_, err := tx.Exec(`
			INSERT INTO categories (title, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO NOTHING
		`, title, slug.Generate(title))
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo author",
		"username", "demo",
		"password", "demo-password",
	)
	return nil
}
