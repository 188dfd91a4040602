package main

import (
	"os"

	"github.com/mlps/physlearn/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
