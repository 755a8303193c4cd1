package main

import (
	"os"

	"github.com/mtgibbs/carl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
