package main

import (
	"os"

	"bondquest-rounds/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
