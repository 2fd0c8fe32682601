package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mklyu/MatrixClassifier/model"
)

const (
	cifarChannels = 3
	cifarSide     = 32
	cifarPixels   = cifarChannels * cifarSide * cifarSide
	cifarRecord   = 1 + cifarPixels
)

// CIFARShape is the shape of a CIFAR-10 image (channels x height x width).
var CIFARShape = model.Shape{cifarChannels, cifarSide, cifarSide}

// ErrDataDirNotFound is returned when the CIFAR-10 directory does not exist.
var ErrDataDirNotFound = errors.New("data directory not found")

// CIFAROptions controls which batches are loaded.
type CIFAROptions struct {
	// Batches lists batch file names to load, in order.
	// Defaults to ["data_batch_1.bin"].
	Batches []string
	// TrimFirst keeps only the first n items when > 0.
	TrimFirst int
}

// LoadCIFAR10 reads CIFAR-10 binary batches from dir.
// Each record is one label byte followed by 3072 channel-major pixel bytes;
// pixels are scaled to [0, 1].
func LoadCIFAR10(dir string, opts CIFAROptions) (*Collection, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDataDirNotFound, dir)
	}

	batches := opts.Batches
	if len(batches) == 0 {
		batches = []string{"data_batch_1.bin"}
	}

	c := NewCollection(CIFARShape, 10000*len(batches))
	for _, name := range batches {
		if opts.TrimFirst > 0 && c.Len() >= opts.TrimFirst {
			break
		}
		if err := loadCIFARBatch(c, filepath.Join(dir, name), opts.TrimFirst); err != nil {
			return nil, err
		}
	}

	if opts.TrimFirst > 0 {
		c.Truncate(opts.TrimFirst)
	}
	return c, nil
}

func loadCIFARBatch(c *Collection, path string, limit int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	return ReadCIFARRecords(bufio.NewReaderSize(f, 256*1024), c, limit)
}

// ReadCIFARRecords appends every record from r to c, stopping early once c
// holds limit items (limit <= 0 reads everything).
func ReadCIFARRecords(r io.Reader, c *Collection, limit int) error {
	rec := make([]byte, cifarRecord)
	pixels := make([]float32, cifarPixels)

	for limit <= 0 || c.Len() < limit {
		if _, err := io.ReadFull(r, rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read record %d: %w", c.Len(), err)
		}
		for i, p := range rec[1:] {
			pixels[i] = float32(p) / 255.0
		}
		if _, err := c.Append(pixels, int(rec[0])); err != nil {
			return err
		}
	}
	return nil
}
