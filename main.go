package main

import (
	"os"

	"github.com/alphadocs/alphadocs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
