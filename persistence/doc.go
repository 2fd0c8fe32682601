// Package persistence provides the binary file format for distance caches.
//
// A cache file is a fixed-size little-endian header followed by a payload of
// (lo uint32, hi uint32, distance float32) records sorted by key. The payload
// may be stored compressed (LZ4 or ZSTD) and is guarded by a CRC32 of its
// uncompressed bytes.
//
//	header   FileHeader (44 bytes)
//	payload  StoredSize bytes
//
// Because records are sorted and compression is deterministic, two caches
// with identical contents always serialize to identical bytes.
//
// Every decoding failure wraps ErrCorrupt.
package persistence
