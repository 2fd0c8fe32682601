package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	classifier "github.com/mklyu/MatrixClassifier"
	"github.com/mklyu/MatrixClassifier/persistence"
	"github.com/spf13/cobra"
)

// inspectReport describes a saved cache without loading the dataset.
type inspectReport struct {
	Location     string  `json:"location"`
	Entries      uint64  `json:"entries"`
	Items        int     `json:"items"`
	Compression  string  `json:"compression"`
	RawBytes     uint64  `json:"raw_bytes"`
	StoredBytes  uint64  `json:"stored_bytes"`
	Checksum     uint32  `json:"checksum"`
	MinDistance  float32 `json:"min_distance"`
	MaxDistance  float32 `json:"max_distance"`
	MeanDistance float64 `json:"mean_distance"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show what a saved distance cache contains",
		Long: `Read and verify a saved cache (checksum included) and print its header
and distance statistics. The dataset is not loaded.

Examples:
  matrixclassifier inspect --cache ./distance_cache.bin
  matrixclassifier inspect --store minio --endpoint localhost:9000 --bucket caches --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := newOutput(cmd)
			if err != nil {
				return err
			}

			rep, err := inspectCache(cmdContext(cmd), cfg)
			if err != nil {
				return err
			}

			if out.structured() {
				return out.encode(rep)
			}
			fmt.Fprintf(out.w, "Cache %s\n", rep.Location)
			fmt.Fprintf(out.w, "  entries: %d covering %d images\n", rep.Entries, rep.Items)
			fmt.Fprintf(out.w, "  compression: %s (%d -> %d bytes)\n", rep.Compression, rep.RawBytes, rep.StoredBytes)
			fmt.Fprintf(out.w, "  checksum: %08x\n", rep.Checksum)
			if rep.Entries > 0 {
				fmt.Fprintf(out.w, "  distance: min %.4f, max %.4f, mean %.4f\n", rep.MinDistance, rep.MaxDistance, rep.MeanDistance)
			}
			return nil
		},
	}
}

func inspectCache(ctx context.Context, cfg classifier.Config) (*inspectReport, error) {
	var (
		r        io.ReadCloser
		location string
	)
	if cfg.Store.Kind == "" {
		f, err := os.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		r, location = f, cfg.Cache.Path
	} else {
		store, err := classifier.OpenStore(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		if c, ok := store.(io.Closer); ok {
			defer c.Close()
		}
		name := cfg.Store.Name
		if name == "" {
			name = classifier.DefaultCacheName
		}
		r, err = store.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		location = cfg.Store.Kind + ":" + name
	}
	defer r.Close()

	entries, header, err := persistence.ReadCache(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}

	rep := &inspectReport{
		Location:    location,
		Entries:     header.EntryCount,
		Compression: persistence.CompressionType(header.Compression).String(),
		RawBytes:    header.RawSize,
		StoredBytes: header.StoredSize,
		Checksum:    header.Checksum,
	}
	if len(entries) == 0 {
		return rep, nil
	}

	rep.MinDistance = float32(math.Inf(1))
	var sum float64
	for _, e := range entries {
		rep.MinDistance = min(rep.MinDistance, e.Distance)
		rep.MaxDistance = max(rep.MaxDistance, e.Distance)
		sum += float64(e.Distance)
		rep.Items = max(rep.Items, int(e.Key.Hi)+1)
	}
	rep.MeanDistance = sum / float64(len(entries))
	return rep, nil
}
