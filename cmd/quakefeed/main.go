package main

import (
	"os"

	"github.com/couchcryptid/quake-feed-service/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// go-flags prints parse and command errors to stderr.
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
