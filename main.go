package main

import (
	"errors"
	"os"

	"github.com/fatih/color"
	"github.com/spiffcs/recap/cmd"
	"github.com/spiffcs/recap/internal/ghclient"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		var hinter ghclient.Hinter
		if errors.As(err, &hinter) {
			color.New(color.FgYellow).Fprintln(os.Stderr, hinter.Hint())
		}
		os.Exit(1)
	}
}
