package main

import (
	"github.com/joho/godotenv"

	"github.com/lexquery/lexquery-cli/internal/adapters/driving/cli"
)

// version is overridden at build time via
// -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.Execute()
}
