package main

import (
	"embed"
	"os"

	"nodeflow/cmd"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cmd.SetAssets(assets)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
