package main

import (
	"errors"
	"fmt"
	"os"
)

// Version information (set by ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	cmd := newRootCommand(openSession)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errInputsFailed) {
			fmt.Fprintf(os.Stderr, "magika: %s\n", describe(err))
		}
		os.Exit(1)
	}
}
