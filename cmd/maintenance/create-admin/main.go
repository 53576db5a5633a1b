package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/config"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/models"
	"github.com/travelease/ticketing-backend/internal/services"
)

// create-admin bootstraps an admin account. Every other account is created
// through the admin API by an existing admin.
func main() {
	var (
		dbURLFlag  string
		firstName  string
		lastName   string
		email      string
		bcryptCost int
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&firstName, "first-name", "Admin", "first name of the admin")
	flag.StringVar(&lastName, "last-name", "", "last name of the admin")
	flag.StringVar(&email, "email", "", "email address used to log in")
	flag.IntVar(&bcryptCost, "bcrypt-cost", 12, "bcrypt cost for the password hash")
	flag.Parse()

	// The password comes from the environment so it never shows up in shell history.
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}
	if email == "" {
		log.Fatal("-email is required")
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Build minimal database config without loading full app config
	db, err := database.NewConnection(ctx, config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := services.NewUserService(database.NewSQLStore(db), bcryptCost, logger)
	user, err := users.Create(ctx, models.CreateUserRequest{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  password,
	}, nil)
	if err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	fmt.Printf("Admin %s created with id %s\n", user.Email, user.ID)
}
