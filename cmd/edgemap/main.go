package main

import (
	"os"

	"github.com/ic-timon/edgemap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
