package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users, permissions and catalog items for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"access_events", "purchases", "items"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared catalog and ledger data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		users := []struct {
			Email string
			Name  string
		}{
			{"admin@courseloop.dev", "Admin"},
			{"learner@courseloop.dev", "Learner"},
		}

		for _, u := range users {
			var exists int
			if err := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row().Scan(&exists); err == nil {
				fmt.Printf("user %s already exists; skipping insert\n", u.Email)
				continue
			}
			if err := db.Exec("INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())", u.Email, u.Name, string(hash)).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"manage_catalog", "Can create and update catalog items"},
		}

		for _, p := range permissions {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
			}
		}

		var adminUserID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "admin@courseloop.dev").Row().Scan(&adminUserID); err != nil {
			log.Fatalf("failed to lookup admin user id: %v", err)
		}

		for _, p := range permissions {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err != nil {
				log.Fatalf("permission not found after insert %s: %v", p.Name, err)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", adminUserID, pid).Row().Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", adminUserID, pid).Error; err != nil {
				log.Fatalf("failed to grant permission %s to admin user: %v", p.Name, err)
			}
		}

		fmt.Println("Granted permissions to admin user")

		items := []struct {
			Type        string
			Title       string
			Desc        string
			Price       float64
			Currency    string
			DownloadURL string
			SourceURL   string
		}{
			{"course", "Distributed Systems in Go", "Build and operate distributed services", 499.00, "INR", "https://cdn.courseloop.dev/courses/distributed-systems.zip", ""},
			{"course", "API Design Masterclass", "HTTP API design from first principles", 29.00, "USD", "https://cdn.courseloop.dev/courses/api-design.zip", ""},
			{"project", "Chat Server Starter", "A production-shaped chat backend", 199.00, "INR", "", "https://github.com/courseloop/chat-server-starter"},
			{"material", "Getting Started Notes", "Free orientation material", 0, "INR", "https://cdn.courseloop.dev/materials/getting-started.pdf", ""},
		}

		for _, it := range items {
			var exists int
			if err := db.Raw("SELECT 1 FROM items WHERE title = ?", it.Title).Row().Scan(&exists); err == nil {
				continue
			}

			var downloadURL, sourceURL interface{}
			if it.DownloadURL != "" {
				downloadURL = it.DownloadURL
			}
			if it.SourceURL != "" {
				sourceURL = it.SourceURL
			}

			if err := db.Exec(
				"INSERT INTO items (id, item_type, title, description, price, currency, download_url, source_url, created_by, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, true, now(), now())",
				uuid.NewString(), it.Type, it.Title, it.Desc, it.Price, it.Currency, downloadURL, sourceURL, fmt.Sprintf("%d", adminUserID),
			).Error; err != nil {
				log.Fatalf("failed to insert item %s: %v", it.Title, err)
			}
			fmt.Printf("Seeded item: %s (%s)\n", it.Title, it.Type)
		}

		fmt.Println("Catalog items seeded successfully")
	},
}
