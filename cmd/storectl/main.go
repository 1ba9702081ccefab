package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/robotech_store/internal/cli"
	"github.com/Skotchmaster/robotech_store/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cmd := cli.NewRootCommand(config.Load())
	if err := cmd.Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
