package main

import (
	"os"

	dfapp "github.com/datatools/dataforge/app"
)

func main() {
	dfapp.App.Reader = os.Stdin
	dfapp.App.Writer = os.Stdout
	dfapp.App.ErrWriter = os.Stderr

	if err := dfapp.App.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
