package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowsmith",
		Short: "Flowsmith agent CLI",
		Long: `Flowsmith is an AI assistant that builds automation workflows on an
n8n-compatible workflow runtime. It indexes the runtime's node types, validates
workflow graphs before submission, and exposes a chat API for assembling them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewIndexCommand())
	rootCmd.AddCommand(NewStatusCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// defaultSnapshotPath is where the offline index build writes and serve reads.
func defaultSnapshotPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "index.json"
	}

	return filepath.Join(home, ".flowsmith", "index.json")
}
