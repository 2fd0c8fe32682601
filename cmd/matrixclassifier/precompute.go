package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newPrecomputeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "precompute",
		Short: "Fill and persist the distance cache",
		Long: `Compute the distance of every image pair of the selected universe and
save the cache. Distances already present in a previously saved cache are
reused, so an interrupted run can be resumed.

Examples:
  matrixclassifier precompute --trim 1000
  matrixclassifier precompute --universe windowed --sample-size 500 --window 16
  matrixclassifier precompute --store sqlite --store-path ./caches.db`,
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

			stats, err := c.Precompute(ctx)
			if err != nil {
				return fmt.Errorf("precompute failed: %w", err)
			}

			rep := c.PrecomputeReport(stats)
			if out.structured() {
				return out.encode(rep)
			}
			fmt.Fprintf(out.w, "Precomputed %d pairs over %d images (%s)\n", rep.Pairs, rep.Items, rep.Universe)
			fmt.Fprintf(out.w, "  computed: %d, reused: %d\n", rep.Computed, rep.Hits)
			fmt.Fprintf(out.w, "  cache entries: %d (%.1f%% of all pairs)\n", rep.Cache.Entries, 100*rep.Cache.Coverage)
			fmt.Fprintf(out.w, "  duration: %dms\n", rep.DurationMS)
			return nil
		},
	}

	cmd.Flags().String("universe", "", "Pair universe: exhaustive or windowed")
	cmd.Flags().Int("sample-size", 0, "Anchors of the windowed universe")
	cmd.Flags().Int("window", 0, "Window of the windowed universe")
	cmd.Flags().Int64("seed", 0, "Seed of the windowed universe")
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
