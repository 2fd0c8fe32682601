package main

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
)

func newClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Partition the images into k clusters",
		Long: `Run k-medoids over the collection. Distances are read from the saved
cache when present and computed (and cached) otherwise. The cache is saved
again afterwards so new distances are kept.

Examples:
  matrixclassifier cluster --k 3
  matrixclassifier cluster --k 10 --max-iterations 25 --seed 7 --format msgpack > clusters.msgpack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.stop()
			out, err := newOutput(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			c, err := s.open(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			rep, err := c.Cluster(ctx)
			if err != nil {
				return fmt.Errorf("clustering failed: %w", err)
			}
			if err := c.SaveCache(ctx); err != nil {
				return err
			}

			if out.structured() {
				return out.encode(rep)
			}
			fmt.Fprintf(out.w, "Clustered %d images into %d clusters (%s after %d iterations)\n",
				rep.Items, len(rep.Clusters), rep.State, rep.Iterations)
			fmt.Fprintf(out.w, "  cost: %.4f, cache hit rate: %.1f%%\n", rep.Cost, 100*rep.Cache.HitRate)
			for i, cl := range rep.Clusters {
				fmt.Fprintf(out.w, "  cluster %d: medoid %d, %d members%s\n", i, cl.Medoid, cl.Size, formatLabels(cl.Labels))
			}
			return nil
		},
	}

	cmd.Flags().Int("k", 0, "Number of clusters")
	cmd.Flags().Int("max-iterations", 0, "Iteration cap")
	cmd.Flags().Int64("seed", 0, "Seed for the initial medoids")
	return cmd
}

// formatLabels renders a label histogram as " [label:count ...]".
func formatLabels(labels map[int]int) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]int, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	s := " ["
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d:%d", k, labels[k])
	}
	return s + "]"
}
