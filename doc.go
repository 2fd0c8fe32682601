// Package classifier clusters a fixed collection of images with a cached
// pairwise distance metric and a medoid-based algorithm.
//
// The distance between two items is computed at most once per index pair
// and kept in a symmetric DistanceCache that can be persisted to a local
// file or any blobstore.Store (local directory, S3, MinIO, SQLite) and
// reloaded by later runs.
//
// # Quick Start
//
//	ds, _ := dataset.LoadCIFAR10("./cifar-10-batches-bin", dataset.CIFAROptions{TrimFirst: 500})
//
//	c, _ := classifier.New(ds,
//	    classifier.WithNormType(distance.NormFrobenius),
//	    classifier.WithK(3),
//	    classifier.WithCachePath("./distance_cache.bin"),
//	)
//	defer c.Close()
//
//	ctx := context.Background()
//	_, _ = c.LoadCache(ctx)      // reuse distances from an earlier run
//	_, _ = c.Precompute(ctx)     // fill and persist the cache
//	report, _ := c.Cluster(ctx)  // k-medoids over cached distances
//
// # Configuration
//
// Every knob is available as a functional Option. The same settings can be
// read from a YAML file with LoadConfig and turned into options with
// Config.Options:
//
//	cfg, _ := classifier.LoadConfig("classifier.yaml")
//	opts, _ := cfg.Options(ctx)
//	c, _ := classifier.New(ds, opts...)
//
// # Errors
//
// The sentinel errors of the internal packages are re-exported here so
// callers can match them with errors.Is using a single import.
package classifier
