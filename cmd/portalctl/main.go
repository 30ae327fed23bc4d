package main

import (
	"os"

	"github.com/viralforge/partner-portal/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
