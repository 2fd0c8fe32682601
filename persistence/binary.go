package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/mklyu/MatrixClassifier/internal/fs"
	"github.com/mklyu/MatrixClassifier/model"
)

// MaxRawSize bounds the uncompressed payload accepted by ReadCache (64GiB).
const MaxRawSize = 1 << 36

// Entry is one cached distance.
type Entry struct {
	Key      model.PairKey
	Distance float32
}

// WriteCache writes entries in the cache file format.
// entries must be sorted by key; WriteCache does not reorder them.
func WriteCache(w io.Writer, entries []Entry, ct CompressionType) error {
	raw := make([]byte, len(entries)*EntrySize)
	for i, e := range entries {
		off := i * EntrySize
		binary.LittleEndian.PutUint32(raw[off:], e.Key.Lo)
		binary.LittleEndian.PutUint32(raw[off+4:], e.Key.Hi)
		binary.LittleEndian.PutUint32(raw[off+8:], math.Float32bits(e.Distance))
	}

	stored, applied, err := compressPayload(raw, ct)
	if err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}

	header := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: uint8(applied),
		EntryCount:  uint64(len(entries)),
		RawSize:     uint64(len(raw)),
		StoredSize:  uint64(len(stored)),
		Checksum:    CalculateChecksum(raw),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	_, err = w.Write(stored)
	return err
}

// ReadCache decodes a complete cache file from r.
// The returned entries are validated: keys are canonical, strictly
// increasing, and every distance is finite and non-negative.
func ReadCache(r io.Reader) ([]Entry, *FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, corrupt(fmt.Errorf("%w: header", ErrTruncated))
		}
		return nil, nil, err
	}
	if header.Magic != MagicNumber {
		return nil, nil, corrupt(fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic))
	}
	if header.Version != Version {
		return nil, nil, corrupt(fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version))
	}
	if header.EntryCount > MaxRawSize/EntrySize || header.RawSize != header.EntryCount*EntrySize {
		return nil, nil, corrupt(fmt.Errorf("%w: %d entries, raw size %d", ErrInvalidEntry, header.EntryCount, header.RawSize))
	}
	ct := CompressionType(header.Compression)
	if ct > CompressionZSTD {
		return nil, nil, corrupt(fmt.Errorf("%w: %d", ErrInvalidCompression, header.Compression))
	}

	// ReadAll grows as data arrives, so a bogus StoredSize cannot force a huge allocation.
	stored, err := io.ReadAll(io.LimitReader(r, int64(header.StoredSize)))
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(stored)) != header.StoredSize {
		return nil, nil, corrupt(fmt.Errorf("%w: payload has %d of %d bytes", ErrTruncated, len(stored), header.StoredSize))
	}
	var trailing [1]byte
	if n, _ := io.ReadFull(r, trailing[:]); n != 0 {
		return nil, nil, corrupt(ErrTrailingData)
	}

	raw, err := decompressPayload(stored, ct, int(header.RawSize))
	if err != nil {
		return nil, nil, corrupt(fmt.Errorf("decompress %s payload: %w", ct, err))
	}
	if err := VerifyChecksum(raw, header.Checksum); err != nil {
		return nil, nil, corrupt(err)
	}

	entries := make([]Entry, header.EntryCount)
	for i := range entries {
		off := i * EntrySize
		e := Entry{
			Key: model.PairKey{
				Lo: binary.LittleEndian.Uint32(raw[off:]),
				Hi: binary.LittleEndian.Uint32(raw[off+4:]),
			},
			Distance: math.Float32frombits(binary.LittleEndian.Uint32(raw[off+8:])),
		}
		if !e.Key.Valid() || e.Key.Hi > uint32(model.MaxIndex) {
			return nil, nil, corrupt(fmt.Errorf("%w: non-canonical key %s", ErrInvalidEntry, e.Key))
		}
		if i > 0 && !entries[i-1].Key.Less(e.Key) {
			return nil, nil, corrupt(fmt.Errorf("%w: key %s out of order", ErrInvalidEntry, e.Key))
		}
		d := float64(e.Distance)
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return nil, nil, corrupt(fmt.Errorf("%w: distance %v for %s", ErrInvalidEntry, e.Distance, e.Key))
		}
		entries[i] = e
	}
	return entries, &header, nil
}

// EncodeCache is WriteCache into a byte slice.
func EncodeCache(entries []Entry, ct CompressionType) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(entries)*EntrySize)
	if err := WriteCache(&buf, entries, ct); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveToFile writes a file atomically: data goes to a temp file in the same
// directory which is synced and then renamed over filename.
func SaveToFile(fsys fs.FileSystem, filename string, writeFunc func(io.Writer) error) error {
	if fsys == nil {
		fsys = fs.Default
	}
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	// Write to a temp file in the same directory to ensure rename is atomic.
	tmp, err := fsys.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if tmpName != "" {
			_ = fsys.Remove(tmpName)
		}
	}()

	// Use buffered writer to batch writes
	buf := bufio.NewWriterSize(tmp, 256*1024) // 256KB buffer
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return err
	}

	// Atomically replace target.
	if err := fsys.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	// Success: prevent deferred cleanup from removing the final file.
	tmpName = ""
	return nil
}

// LoadFromFile is a helper to load data from a file.
func LoadFromFile(fsys fs.FileSystem, filename string, readFunc func(io.Reader) error) error {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(filename, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	// Use buffered reader to batch reads
	buf := bufio.NewReaderSize(f, 256*1024) // 256KB buffer
	return readFunc(buf)
}
