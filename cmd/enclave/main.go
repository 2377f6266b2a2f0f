package main

import (
	"os"

	"github.com/arif/enclave/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
