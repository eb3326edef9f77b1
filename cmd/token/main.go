// Command token prints a signed access token for the configured secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spec-kit/contest-service/internal/auth"
	"github.com/spec-kit/contest-service/internal/config"
)

func main() {
	subject := flag.String("subject", "local-organizer", "subject id carried in the token")
	role := flag.String("role", string(auth.RoleOrganizer), "role: organizer or viewer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expiresAt, err := tokens.GenerateToken(*subject, auth.Role(*role))
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Fprintln(os.Stdout, token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
