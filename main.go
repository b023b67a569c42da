package main

import (
	"fmt"
	"os"

	"timeline-editor/config"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
