package main

import (
	"os"

	"github.com/cppla/tripjournal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
