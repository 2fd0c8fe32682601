// Command matrixclassifier precomputes pairwise image distances and
// clusters a CIFAR-10 collection with k-medoids.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "matrixclassifier",
		Short: "Cluster images with cached matrix-norm distances",
		Long: `matrixclassifier computes pairwise distances between the images of a
CIFAR-10 collection, keeps them in a persistent distance cache and
partitions the collection into k clusters with k-medoids.

Typical workflow:
  matrixclassifier precompute --data-dir ./cifar-10-batches-bin --trim 500
  matrixclassifier cluster --k 3
  matrixclassifier inspect`,
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML config file (flags override its values)")
	flags.String("data-dir", "", "CIFAR-10 binary batch directory")
	flags.StringSlice("batches", nil, "Batch files to load (default data_batch_1.bin)")
	flags.Int("trim", 0, "Keep only the first n images (0 keeps all)")
	flags.String("norm", "", "Norm type: frobenius or l2")
	flags.Int("workers", 0, "Parallelism (0 uses GOMAXPROCS)")
	flags.String("cache", "", "Local cache file")
	flags.String("compression", "", "Cache compression: none, lz4 or zstd")
	flags.String("store", "", "Cache store kind: local, s3, minio or sqlite")
	flags.String("store-path", "", "Root directory (local) or database file (sqlite)")
	flags.String("bucket", "", "Bucket for s3 and minio stores")
	flags.String("endpoint", "", "Endpoint for minio or S3-compatible stores")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	flags.Bool("json", false, "Output as JSON")
	flags.String("format", "", "Output codec: json, go-json or msgpack (implies structured output)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :2112)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newPrecomputeCmd(),
		newClusterCmd(),
		newInspectCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newOutput(cmd)
			if err != nil {
				return err
			}
			if out.structured() {
				return out.encode(map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "matrixclassifier version %s\n", version)
			return nil
		},
	}
}
