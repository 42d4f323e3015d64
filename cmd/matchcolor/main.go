package main

import (
	"fmt"
	"os"

	"github.com/atinylittleshell/matchcolor/internal/cli"
)

var BUILD_VERSION = "dev"

func main() {
	app := cli.NewApp(cli.Deps{})
	root := cli.NewRootCmd(app)
	root.Version = BUILD_VERSION

	err := root.Execute()
	if closeErr := app.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
