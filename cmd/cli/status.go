package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/settings"
	"github.com/flowsmith/flowsmith/internal/version"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, _ := cmd.Flags().GetString("snapshot")

			return runStatus(cmd, snapshot)
		},
	}

	cmd.Flags().String("snapshot", defaultSnapshotPath(), "Capability index snapshot file")

	return cmd
}

func runStatus(cmd *cobra.Command, snapshotPath string) error {
	out := cmd.OutOrStdout()

	info := version.Get()
	fmt.Fprintf(out, "flowsmith %s (%s, %s)\n\n", info.Version, info.GoVersion, info.Platform)

	store, err := settings.NewStore()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Settings (%s):\n", store.Path())

	all, err := store.GetAll(context.Background())
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(out, "  (none)")
	}

	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(out, "  %s = %s\n", key, maskSecret(key, all[key]))
	}

	fmt.Fprintf(out, "\nIndex snapshot (%s):\n", snapshotPath)

	snapshot, err := catalog.ReadSnapshot(snapshotPath)
	if err != nil {
		fmt.Fprintln(out, "  not built yet, run 'flowsmith index'")
		return nil
	}

	fmt.Fprintf(out, "  node types:   %d\n", snapshot.Count)
	fmt.Fprintf(out, "  triggers:     %d\n", len(snapshot.Triggers))
	fmt.Fprintf(out, "  aliases:      %d\n", len(snapshot.Aliases))
	fmt.Fprintf(out, "  generated at: %s\n", snapshot.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	return nil
}

// maskSecret hides the value of api-key settings.
func maskSecret(key, value string) string {
	if !strings.Contains(key, "key") || value == "" {
		return value
	}
	if len(value) <= 4 {
		return "****"
	}

	return "****" + value[len(value)-4:]
}
