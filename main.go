package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/bnema/dockcatalog/cmd"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
