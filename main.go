package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/memvault/memvault/cmd"
)

// Version is set via ldflags during build
var Version = "dev"

func main() {
	// A .env in the working directory can override store locations and the
	// embedding backend without touching the config file.
	_ = godotenv.Load()

	cmd.Version = Version

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
