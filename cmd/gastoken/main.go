// Command gastoken signs a bearer token for the premium gas sizing tools.
//
//	TOKEN_KEY=... gastoken -sub design-office -ttl 720h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"Gascalc/internal/auth"
	"Gascalc/internal/config"
)

func main() {
	sub := flag.String("sub", "", "token subject (client or office name)")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.TokenKey == "" {
		fmt.Fprintln(os.Stderr, "TOKEN_KEY environment variable is not set")
		os.Exit(1)
	}
	token, err := auth.IssueToken([]byte(cfg.TokenKey), *sub, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(token)
}
