package main

import (
	"os"

	"toolshed/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
