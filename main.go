package main

import (
	"os"

	"github.com/nlucraft/sentencehub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
