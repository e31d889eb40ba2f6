// Package main provides a CLI tool for minting bearer tokens accepted by the
// mock todo API. Tokens are signed with the configured development key and
// stop validating as soon as the mock API rotates its key.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	jwttoken "todoweb/internal/jwt_token"
	"todoweb/internal/mockapi"
	"todoweb/internal/platform/config"
	"todoweb/internal/session"

	"github.com/google/uuid"
)

const defaultTokenTTL = 15 * time.Minute

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	userID := accessCmd.String("user-id", "", "User ID (UUID). Generated if empty.")
	role := accessCmd.String("role", session.RoleUser, "Role claim (USER or ADMIN)")
	ttl := accessCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	key := accessCmd.String("key", "", "Signing key. Defaults to TODO_MOCK_API_SIGNING_KEY or the dev key.")
	jsonOut := accessCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access":
		_ = accessCmd.Parse(os.Args[2:])
		generateAccessToken(*userID, *role, *key, *ttl, *jsonOut)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate bearer tokens for the mock todo API

WARNING: These tokens use the development signing key.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  access    Generate an access token (JWT)

Examples:
  # Generate a USER token with defaults
  tokengen access

  # Generate an ADMIN token for a known user
  tokengen access -user-id "550e8400-e29b-41d4-a716-446655440000" -role ADMIN

  # Output as JSON
  tokengen access -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateAccessToken(userID, role, signingKey string, ttl time.Duration, jsonOutput bool) {
	if signingKey == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		signingKey = cfg.MockAPI.SigningKey
	}

	uid := parseOrGenerateUUID(userID)
	role = strings.ToUpper(strings.TrimSpace(role))

	svc := jwttoken.NewJWTService(signingKey, mockapi.Issuer, ttl)
	token, err := svc.GenerateAccessToken(uid.String(), role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"user_id": uid.String(),
				"role":    role,
				"iss":     mockapi.Issuer,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("User ID:     %s\n", uid)
	fmt.Printf("Role:        %s\n", role)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://127.0.0.1:8081/todos")
}

func parseOrGenerateUUID(value string) uuid.UUID {
	if value == "" {
		return uuid.New()
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user-id: %v\n", err)
		os.Exit(1)
	}
	return parsed
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
