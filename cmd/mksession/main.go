// mksession mints a session cookie for local testing against a running
// server, using the same SESSION_SECRET the server validates with.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"comentsia-go/internal/auth"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", "", "user id to mint a session for")
	cookie := flag.String("cookie", "comentsia_session", "session cookie name")
	ttl := flag.Duration("ttl", 24*time.Hour, "session lifetime")
	flag.Parse()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "SESSION_SECRET is not set")
		os.Exit(1)
	}
	if *user == "" {
		fmt.Fprintln(os.Stderr, "usage: mksession -user <user-id>")
		os.Exit(1)
	}

	token, csrf, err := auth.IssueSessionToken([]byte(secret), *user, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to mint session: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Cookie: %s=%s\n", *cookie, token)
	fmt.Printf("X-CSRF-Token: %s\n", csrf)
}
