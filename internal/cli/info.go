package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ic-timon/edgemap/graph"
	"github.com/ic-timon/edgemap/graph/store"
)

func newInfoCmd() *cobra.Command {
	var noVerify bool

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print header and stats of a graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			var flags graph.DeserializeFlags
			if noVerify {
				flags |= graph.SkipChecksum
				logger.Debug("checksum verification skipped")
			}
			v, err := graph.OpenView(args[0], flags)
			if err != nil {
				return err
			}
			defer v.Close()

			h := v.Header()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "format:      %s v%d.%d\n", store.Magic, h.VersionMajor, h.VersionMinor)
			fmt.Fprintf(out, "nodes:       %d\n", h.NodeCount)
			fmt.Fprintf(out, "edges:       %d\n", h.EdgeCount)
			fmt.Fprintf(out, "payload:     %d bytes\n", h.DataSize)
			fmt.Fprintf(out, "weighted:    %v\n", h.Flags&store.FlagWeighted != 0)
			fmt.Fprintf(out, "id index:    %v\n", v.HasIndex())
			if h.Flags&store.FlagChecksum != 0 {
				fmt.Fprintf(out, "checksum:    %#08x\n", h.Checksum)
			} else {
				fmt.Fprintf(out, "checksum:    none\n")
			}
			if h.NodeCount > 0 {
				fmt.Fprintf(out, "avg degree:  %.2f\n", float64(h.EdgeCount)/float64(h.NodeCount))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip checksum verification")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Run the full validating deserializer against a graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			g, err := graph.LoadFrom(args[0], 0)
			if err != nil {
				return err
			}
			fp, err := g.Fingerprint()
			if err != nil {
				return err
			}
			logger.Info("file is valid", "path", args[0], "fingerprint", fmt.Sprintf("%#016x", fp))
			return nil
		},
	}
}
