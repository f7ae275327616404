package main

import (
	"os"

	"github.com/pocketwise/pocketwise/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
