package main

import (
	"os"

	"github.com/shyabid/rolevia/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
