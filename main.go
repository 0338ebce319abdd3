package main

import (
	"os"

	"github.com/becomeliminal/nim-memory/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
