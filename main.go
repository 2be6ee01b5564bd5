package main

import (
	"os"

	"github.com/kilianp07/h2grid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
