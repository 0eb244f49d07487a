package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/conveyorci/conveyor/internal/cli"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
