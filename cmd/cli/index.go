package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flowsmith/flowsmith/internal/catalog"
)

func NewIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the capability index snapshot from the node corpus",
		Long:  `Scan the node source corpus, extract metadata for every node type and write the snapshot file the serve command loads on startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, _ := cmd.Flags().GetString("corpus")
			out, _ := cmd.Flags().GetString("out")
			namespace, _ := cmd.Flags().GetString("namespace")

			return runIndex(corpus, out, namespace)
		},
	}

	cmd.Flags().String("corpus", "./nodes", "Node source corpus directory")
	cmd.Flags().String("out", defaultSnapshotPath(), "Snapshot output file")
	cmd.Flags().String("namespace", "", "Type identifier namespace (defaults to n8n-nodes-base)")

	return cmd
}

func runIndex(corpus, out, namespace string) error {
	extractor := catalog.NewExtractor(corpus, namespace)

	index, err := catalog.Build(extractor)
	if err != nil {
		return err
	}

	snapshot := index.Snapshot()
	if err := catalog.WriteSnapshot(out, snapshot); err != nil {
		return err
	}

	log.Info().
		Int("node_types", snapshot.Count).
		Str("path", out).
		Msg("capability index snapshot written")

	return nil
}
