// Command audiobound drives the audiobook conversion pipeline: serve runs
// the HTTP API, convert/resume run one job directly from the shell, and
// inspect reports on a prior run's resume state.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:     "audiobound",
		Short:   "Converts books into narrated, multi-voice audiobooks",
		Version: version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/dev.example.yaml", "path to configuration file")

	root.AddCommand(newServeCommand())
	root.AddCommand(newConvertCommand())
	root.AddCommand(newResumeCommand())
	root.AddCommand(newInspectCommand())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const version = "0.1.0"
