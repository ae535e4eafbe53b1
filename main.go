package main

import (
	"os"

	"parley/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
