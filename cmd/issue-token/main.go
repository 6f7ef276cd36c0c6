package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"lucent-shop-api/internal/middleware"
	"lucent-shop-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var adminPrivileges = []string{
	middleware.PrivProductCreate,
	middleware.PrivProductUpdate,
	middleware.PrivStockAdjust,
	middleware.PrivOrderView,
	middleware.PrivOrderUpdateStatus,
	middleware.PrivDashboardView,
	middleware.PrivEventView,
}

// issue-token signs an access token with the shared JWT secret, for local
// development and operator scripts.
func main() {
	userID := flag.String("user", "", "user id (random when empty)")
	email := flag.String("email", "admin@lucent.local", "email claim")
	name := flag.String("name", "Lucent Admin", "name claim")
	role := flag.String("role", "ADMIN", "role claim")
	privileges := flag.String("privileges", "all", `comma separated privileges, "all" or "none"`)
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	id := uuid.New()
	if *userID != "" {
		parsed, err := uuid.Parse(*userID)
		if err != nil {
			log.Fatalf("Invalid user id %q: %v", *userID, err)
		}
		id = parsed
	}

	var privs []string
	switch *privileges {
	case "all":
		privs = adminPrivileges
	case "none", "":
	default:
		for _, p := range strings.Split(*privileges, ",") {
			if p = strings.TrimSpace(p); p != "" {
				privs = append(privs, p)
			}
		}
	}

	token, err := jwt.GenerateToken(id, *email, *name, *role, privs, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	log.Printf("Token for %s (%s), privileges=%v, expires in %s", *email, id, privs, *ttl)
	fmt.Println(token)
}
