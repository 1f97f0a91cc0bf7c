package main

import (
	"fmt"
	"os"

	"Dormant/internal/cli"
)

// version is overridden with -ldflags "-X main.version=..."
var version = "2.0.0"

func main() {
	cli.Version = version
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
