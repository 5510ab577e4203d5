package main

import (
	"log"
	"os"

	"membrane-connect-be/internal/model"
	"membrane-connect-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// The users table belongs to the auth provider. It is only created here
	// for local development databases that do not have one yet.
	if !db.Migrator().HasTable(&model.User{}) {
		log.Println("Step 1: Creating development users table...")
		if err := db.AutoMigrate(&model.User{}); err != nil {
			log.Fatalf("Error: AutoMigrate users failed: %v", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate for membrane_services...")
	if err := db.AutoMigrate(&model.MembraneService{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_membrane_services_user_created ON membrane_services (user_id, created_at);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
