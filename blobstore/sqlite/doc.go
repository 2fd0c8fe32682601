// Package sqlite stores cache blobs in a single SQLite database file using
// the pure-Go modernc.org/sqlite driver.
//
//	store, err := sqlite.Open("caches.db")
//	defer store.Close()
//	err = distances.SaveTo(ctx, store, "cifar10-frobenius.mdc")
package sqlite
