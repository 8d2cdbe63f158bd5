package main

import (
	"os"

	"github.com/krisalay/asset-cache/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
