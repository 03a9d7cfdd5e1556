// Command jwtgen mints a token accepted by the dashboard's mock data source.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/config"
	"inventory-dashboard/internal/inventory"
	"inventory-dashboard/internal/models"
)

func main() {
	var (
		username   = flag.String("user", inventory.DemoUsername, "Username")
		name       = flag.String("name", "Administrator", "Display name")
		role       = flag.String("role", "admin", "Role")
		expiryMins = flag.Int("expiry", 1440, "Token expiry in minutes (default: 24 hours)")
		secret     = flag.String("secret", "", "JWT secret (overrides JWT_SECRET env var)")
		issuer     = flag.String("issuer", "", "JWT issuer (overrides JWT_ISS env var)")
		audience   = flag.String("audience", "", "JWT audience (overrides JWT_AUD env var)")
	)
	flag.Parse()

	cfg := config.Load()
	if *secret != "" {
		cfg.JWTSecret = *secret
	}
	if *issuer != "" {
		cfg.JWTIssuer = *issuer
	}
	if *audience != "" {
		cfg.JWTAudience = *audience
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, time.Duration(*expiryMins)*time.Minute)
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatalf("Invalid JWT configuration: %v", err)
	}

	user := models.User{ID: "1", Username: *username, Name: *name, Role: *role}
	token, err := jwtManager.GenerateToken(user)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("JWT Token generated successfully!\n\n")
	fmt.Printf("User: %s (%s)\n", user.Username, user.Role)
	fmt.Printf("Expiry: %d minutes\n", *expiryMins)
	fmt.Printf("Issuer: %s\n", cfg.JWTIssuer)
	fmt.Printf("Audience: %s\n", cfg.JWTAudience)
	fmt.Printf("\nToken:\n%s\n\n", token)

	fmt.Printf("Usage example (DATA_SOURCE=mock):\n")
	fmt.Printf("invctl -token %s list\n", token)
}
