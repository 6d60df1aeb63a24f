package main

import (
	"os"

	"ethfaucet/pkg/cli"
)

// Version should be set during build
var Version = "dev"

func main() {
	if err := cli.Execute(Version); err != nil {
		os.Exit(1)
	}
}
