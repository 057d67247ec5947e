// Command assignmigrate converts the legacy Class.workers arrays into
// worker_assignments records and verifies the result.
//
//	assignmigrate migrate [-dry-run] [-season 4:2025-07-01:2025-08-31 ...]
//	assignmigrate verify
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cli := &commandLine{out: os.Stdout, log: logger}
	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		logger.Error("assignmigrate failed", zap.Error(err))
		os.Exit(1)
	}
}
