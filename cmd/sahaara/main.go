// Package main is the single-binary entrypoint for the Sahaara engine:
// the gamification ledger and engagement API behind the Sahaara wellness app.
package main

import "github.com/sahaara-app/sahaara/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
