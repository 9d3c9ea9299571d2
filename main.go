package main

import (
	"os"

	"github.com/hazemkhaled/raggate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
