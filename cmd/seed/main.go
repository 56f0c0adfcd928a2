package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/biswajit-debnath/control-room/internal/config"
	"github.com/biswajit-debnath/control-room/internal/model"
	"github.com/biswajit-debnath/control-room/internal/repository"
	"github.com/biswajit-debnath/control-room/internal/service"

	"github.com/joho/godotenv"
)

const defaultSeedFile = "seed/users.json"

// seed creates or refreshes staff accounts from a JSON file:
//
//	go run ./cmd/seed [path/to/users.json]
//
// Each entry is {"phone", "password", "name", "role"}; existing users are
// matched by phone and get their name, role and password replaced.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	path := defaultSeedFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read seed file %s: %v", path, err)
	}
	var users []model.SeedUser
	if err := json.Unmarshal(raw, &users); err != nil {
		log.Fatalf("Failed to parse seed file %s: %v", path, err)
	}

	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("Failed to load DB config: %v", err)
	}
	dbPool, err := config.ConnectDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	ctx := context.Background()
	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	userRepo := repository.NewUserRepository(dbPool)
	authService := service.NewAuthService(userRepo, repository.NewActivityRepository(dbPool), nil, nil)

	if err := authService.SeedUsers(ctx, users); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users from %s", len(users), path)
}
