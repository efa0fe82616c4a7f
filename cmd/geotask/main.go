package main

import (
	"os"

	"github.com/nhle/geotask/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
