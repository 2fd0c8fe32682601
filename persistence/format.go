package persistence

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies distance cache files (ASCII: "MDC1")
	MagicNumber = 0x4D444331
	// Version is the current file format version (v1.0.0)
	Version = 0x00010000

	// EntrySize is the encoded size of one cache entry in bytes.
	EntrySize = 12

	// HeaderSize is the encoded size of FileHeader in bytes.
	HeaderSize = 44
)

var (
	// ErrCorrupt wraps every failure to decode a cache file.
	ErrCorrupt = errors.New("corrupt cache file")

	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrInvalidCompression = errors.New("unknown compression type")
	ErrTruncated          = errors.New("truncated data")
	ErrTrailingData       = errors.New("trailing data after payload")
	ErrInvalidEntry       = errors.New("invalid entry")
)

// FileHeader is the 44-byte header at the start of every cache file.
type FileHeader struct {
	Magic       uint32 // 0x4D444331 ("MDC1")
	Version     uint32 // File format version
	Compression uint8  // CompressionType of the payload
	Padding1    [3]byte
	EntryCount  uint64 // Number of entries
	RawSize     uint64 // Uncompressed payload size (EntryCount * EntrySize)
	StoredSize  uint64 // Payload bytes following the header
	Checksum    uint32 // CRC32 of the uncompressed payload
	Padding2    [4]byte
}

// CompressionType defines the compression algorithm used for the payload.
type CompressionType uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD compression (better ratio).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// ParseCompression maps "none" | "lz4" | "zstd" to a CompressionType.
func ParseCompression(s string) (CompressionType, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCompression, s)
	}
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %w", ErrCorrupt, err)
}
