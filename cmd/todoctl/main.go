// Command todoctl manages todos from the terminal against the same API and
// session file as the web server.
package main

import (
	"fmt"
	"os"

	"todoweb/internal/cli"
	"todoweb/internal/platform/config"
	"todoweb/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	// Logs go to stderr at warn so they never mix with command output.
	log := logger.NewWithWriter(os.Stderr, "warn")
	if cfg.Server.LogLevel == "debug" {
		log = logger.NewWithWriter(os.Stderr, "debug")
	}

	root := cli.New(cfg, log, os.Stdout, os.Stderr).Root()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
