package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"go-messenger/internal/infrastructure/database"
	"go-messenger/internal/infrastructure/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	logger, err := logging.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if err := database.Migrate(dbUrl, cmd, logger); err != nil {
		log.Fatal(err)
	}
}
