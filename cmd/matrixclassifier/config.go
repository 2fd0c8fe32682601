package main

import (
	"context"
	"fmt"
	"io"

	classifier "github.com/mklyu/MatrixClassifier"
	"github.com/mklyu/MatrixClassifier/codec"
	"github.com/spf13/cobra"
)

// loadConfig reads --config (or the defaults) and applies flag overrides.
func loadConfig(cmd *cobra.Command) (classifier.Config, error) {
	flags := cmd.Flags()

	cfg := classifier.DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := classifier.LoadConfig(path)
		if err != nil {
			return classifier.Config{}, err
		}
		cfg = loaded
	}

	setString := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	setInt := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}

	setString("data-dir", &cfg.Dataset.Dir)
	if flags.Changed("batches") {
		cfg.Dataset.Batches, _ = flags.GetStringSlice("batches")
	}
	setInt("trim", &cfg.Dataset.TrimFirst)
	setString("norm", &cfg.NormType)
	setInt("workers", &cfg.Workers)
	setString("cache", &cfg.Cache.Path)
	setString("compression", &cfg.Cache.Compression)
	setString("store", &cfg.Store.Kind)
	setString("store-path", &cfg.Store.Path)
	setString("bucket", &cfg.Store.Bucket)
	setString("endpoint", &cfg.Store.Endpoint)
	setString("log-level", &cfg.Log.Level)
	setString("log-format", &cfg.Log.Format)

	// Command-local flags.
	setInt("k", &cfg.K)
	setInt("max-iterations", &cfg.MaxIterations)
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	setString("universe", &cfg.Universe.Policy)
	setInt("sample-size", &cfg.Universe.SampleSize)
	setInt("window", &cfg.Universe.Window)

	if err := cfg.Validate(); err != nil {
		return classifier.Config{}, err
	}
	return cfg, nil
}

// session is everything a command needs to run against one dataset.
type session struct {
	cfg     classifier.Config
	logger  *classifier.Logger
	metrics classifier.MetricsCollector
	stop    func()
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		logger:  logger,
		metrics: classifier.NoopMetricsCollector{},
		stop:    func() {},
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		collector, stop, err := serveMetrics(addr, logger)
		if err != nil {
			return nil, err
		}
		s.metrics, s.stop = collector, stop
	}
	return s, nil
}

// open loads the dataset and builds a classifier with the persisted cache
// loaded when one exists.
func (s *session) open(ctx context.Context) (*classifier.Classifier, error) {
	ds, err := s.cfg.LoadDataset()
	if err != nil {
		return nil, err
	}
	s.logger.WithCount(ds.Len()).Info("dataset loaded", "dir", s.cfg.Dataset.Dir)

	opts, err := s.cfg.Options(ctx)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		classifier.WithLogger(s.logger),
		classifier.WithMetricsCollector(s.metrics),
	)
	c, err := classifier.New(ds, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := c.LoadCache(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// output writes command results as text or with a codec.
type output struct {
	w     io.Writer
	codec codec.Codec
}

func newOutput(cmd *cobra.Command) (*output, error) {
	out := &output{w: cmd.OutOrStdout()}
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		out.codec = codec.JSON{}
	}
	if name, _ := cmd.Flags().GetString("format"); name != "" {
		c, ok := codec.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown format %q (want one of %v)", name, codec.Names())
		}
		out.codec = c
	}
	return out, nil
}

func (o *output) structured() bool {
	return o.codec != nil
}

func (o *output) encode(v any) error {
	data, err := o.codec.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := o.w.Write(data); err != nil {
		return err
	}
	if o.codec.Name() != "msgpack" {
		_, err = io.WriteString(o.w, "\n")
	}
	return err
}
