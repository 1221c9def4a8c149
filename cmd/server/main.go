// Package main is the entry point for the account-auth server.
//
// main stays minimal: it builds the cobra command tree and exits non-zero on
// failure. Configuration loading and wiring live in root.go and
// internal/server.
package main

import (
	"os"
)

// Version information set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
