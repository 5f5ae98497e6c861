package main

import (
	"os"

	"offline-backup/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
