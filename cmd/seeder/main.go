package main

import (
	"fmt"
	"log"

	"github.com/asah-capstone-a25/leadscore-backend/internal/config"
	"github.com/asah-capstone-a25/leadscore-backend/internal/db"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
)

// Seeds local users with known API keys for manual testing.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		log.Fatal(err)
	}

	users := &repository.UserRepository{DB: conn}
	seed := []model.User{
		{Email: "admin@example.com", Role: model.RoleAdmin, APIKey: "dev-admin-key"},
		{Email: "analyst@example.com", Role: model.RoleAnalyst, APIKey: "dev-analyst-key"},
	}

	for i := range seed {
		if err := users.Create(&seed[i]); err != nil {
			log.Fatalf("failed to seed %s: %v", seed[i].Email, err)
		}
		fmt.Printf("Seeded: %s (%s)\n", seed[i].Email, seed[i].Role)
	}

	fmt.Println("Database seeding completed successfully!")
}
