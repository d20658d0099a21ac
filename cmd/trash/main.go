package main

import (
	"os"

	"trash/internal/exitcodes"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	code := exitcodes.Success
	cmd := newRootCmd(&code)
	os.Exit(execute(cmd, &code))
}
