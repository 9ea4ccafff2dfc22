package main

import (
	"os"

	"homeportal/internal/cli"
)

func main() {
	if err := cli.NewWorkerRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
