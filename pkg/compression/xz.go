package compression

import (
	"io"

	"github.com/ulikunitz/xz"
)

var _ Compressor = &XzCompressor{}

type XzCompressor struct {
}

func (x *XzCompressor) Uncompress(in io.Reader) (io.Reader, error) {
	return xz.NewReader(in)
}

func (x *XzCompressor) Compress(out io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(out)
}
func (x *XzCompressor) Extension() string {
	return "xz"
}
