package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/config"
	"github.com/breakhouse/breakhouse-api/internal/pkg/jwt"
)

// Dev utility: mints an access token for local API testing without a
// real identity provider. Do not run against production secrets.
func main() {
	var (
		id       = flag.String("id", "", "user id (random if empty)")
		email    = flag.String("email", "dev@breakhouse.local", "user email")
		role     = flag.String("role", "user", "user role (user|admin)")
		name     = flag.String("name", "Dev User", "display name")
		verified = flag.Bool("verified", true, "mark email as verified")
	)
	flag.Parse()

	cfg := config.Load()

	userID := uuid.New()
	if *id != "" {
		parsed, err := uuid.Parse(*id)
		if err != nil {
			log.Fatalf("invalid user id %q: %v", *id, err)
		}
		userID = parsed
	}

	svc := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	token, err := svc.GenerateAccessToken(userID, *email, *role, *name, *verified)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Printf("user_id: %s\n", userID)
	fmt.Println(token)
}
