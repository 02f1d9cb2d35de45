package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Execute runs the edgemap CLI and returns an error if any command fails.
//
// All commands support --verbose (-v) for debug-level logging; the logger is
// attached to the command context and retrieved with loggerFromContext.
func Execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:          "edgemap",
		Short:        "edgemap inspects and traverses binary graph files",
		Long:         `edgemap is a CLI for the edgemap binary graph format: generate, verify and inspect graph files, and run parallel traversals against them zero-copy.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newInfoCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newBFSCmd())
	root.AddCommand(newComponentsCmd())
	root.AddCommand(newPathCmd())
	root.AddCommand(newGenCmd())

	return root.ExecuteContext(context.Background())
}
