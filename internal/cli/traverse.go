package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ic-timon/edgemap/graph"
	"github.com/ic-timon/edgemap/traverse"
)

// openForTraversal maps a graph file for the traversal commands. Checksum
// verification happens once at open; the traversal itself never re-reads.
func openForTraversal(path string, noVerify bool) (*graph.View, error) {
	var flags graph.DeserializeFlags
	if noVerify {
		flags |= graph.SkipChecksum
	}
	return graph.OpenView(path, flags)
}

func newBFSCmd() *cobra.Command {
	var (
		start    uint64
		workers  int
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "bfs <file>",
		Short: "Run a parallel breadth-first traversal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			v, err := openForTraversal(args[0], noVerify)
			if err != nil {
				return err
			}
			defer v.Close()

			began := time.Now()
			res, err := traverse.BFS(v, start, &traverse.Options{Workers: workers})
			if err != nil {
				return err
			}
			logger.Info("bfs done",
				"start", start,
				"visited", res.Count,
				"levels", res.Depth,
				"elapsed", time.Since(began).Round(time.Millisecond),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "visited %d of %d nodes in %d levels\n",
				res.Count, v.NodeCount(), res.Depth)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&start, "start", 0, "start node position")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = all CPUs)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip checksum verification")
	return cmd
}

func newComponentsCmd() *cobra.Command {
	var (
		workers  int
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "components <file>",
		Short: "Count connected components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			v, err := openForTraversal(args[0], noVerify)
			if err != nil {
				return err
			}
			defer v.Close()

			began := time.Now()
			res, err := traverse.ConnectedComponents(v, &traverse.Options{Workers: workers})
			if err != nil {
				return err
			}
			logger.Info("components done",
				"count", res.Count,
				"elapsed", time.Since(began).Round(time.Millisecond),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d connected components across %d nodes\n",
				res.Count, v.NodeCount())
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = all CPUs)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip checksum verification")
	return cmd
}

func newPathCmd() *cobra.Command {
	var (
		from     uint64
		to       uint64
		workers  int
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "path <file>",
		Short: "Find an unweighted shortest path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			v, err := openForTraversal(args[0], noVerify)
			if err != nil {
				return err
			}
			defer v.Close()

			began := time.Now()
			path, err := traverse.ShortestPath(v, from, to, &traverse.Options{Workers: workers})
			if err != nil {
				return err
			}
			logger.Info("path found",
				"hops", len(path)-1,
				"elapsed", time.Since(began).Round(time.Millisecond),
			)
			hops := make([]string, len(path))
			for i, p := range path {
				hops[i] = fmt.Sprintf("%d", p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(hops, " -> "))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 0, "source node position")
	cmd.Flags().Uint64Var(&to, "to", 0, "target node position")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = all CPUs)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip checksum verification")
	return cmd
}
