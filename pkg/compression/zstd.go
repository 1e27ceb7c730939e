package compression

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

var _ Compressor = &ZstdCompressor{}

type ZstdCompressor struct {
}

func (z *ZstdCompressor) Uncompress(in io.Reader) (io.Reader, error) {
	return zstd.NewReader(in)
}

func (z *ZstdCompressor) Compress(out io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
}
func (z *ZstdCompressor) Extension() string {
	return "zst"
}
