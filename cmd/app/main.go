package main

import (
	"os"

	"github.com/xllucky21/xllucky/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
