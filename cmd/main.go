package main

import (
	"os"

	"github.com/rathi22/quizzia/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
