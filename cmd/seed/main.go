// Command seed creates the initial admin account. It is idempotent: if the
// email is already registered the existing account is left untouched.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/goodbridge/givestack/internal/app"
	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/store"
	"github.com/goodbridge/givestack/internal/store/drivers/sqlite"
	"github.com/goodbridge/givestack/pkg/cryptox"
	"github.com/goodbridge/givestack/pkg/idx"
)

func main() {
	cfg := app.LoadConfig()

	name := os.Getenv("ADMIN_NAME")
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if name == "" || email == "" || password == "" {
		log.Fatal("ADMIN_NAME, ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}

	ctx := context.Background()
	if err := db.Users().CreateUser(ctx, admin); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Printf("admin %s already exists, nothing to do", email)
			return
		}
		log.Fatalf("failed to create admin: %v", err)
	}

	log.Printf("admin %s created", email)
}
