package main

import (
	"os"

	"github.com/i474232898/weather-companion/cmd/weather-companion/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
