package compression

import (
	"fmt"
	"io"
)

const (
	// DefaultCompression used when compression is requested without naming an algorithm.
	DefaultCompression = "gzip"
)

type Compressor interface {
	Uncompress(in io.Reader) (io.Reader, error)
	Compress(out io.Writer) (io.WriteCloser, error)
	// Extension is appended to the compressed file name, without the leading dot.
	Extension() string
}

// GetCompressor returns the compressor for the named algorithm.
func GetCompressor(name string) (Compressor, error) {
	switch name {
	case "gzip", "gz":
		return &GzipCompressor{}, nil
	case "bzip2", "bz2":
		return &Bzip2Compressor{}, nil
	case "xz":
		return &XzCompressor{}, nil
	case "zstd", "zst":
		return &ZstdCompressor{}, nil
	case "none", "":
		return &NoCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression format: %s", name)
	}
}
