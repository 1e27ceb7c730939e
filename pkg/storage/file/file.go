package file

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

type File struct {
	url  url.URL
	path string
}

func New(u url.URL) *File {
	return &File{u, u.Path}
}

func (f *File) Push(ctx context.Context, target, source string, logger *log.Entry) (int64, error) {
	dest := filepath.Join(f.path, target)
	logger.Debugf("copying %s to %s", source, dest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	return copyFile(ctx, source, dest)
}

func (f *File) Protocol() string {
	return "file"
}

func (f *File) URL() string {
	return f.url.String()
}

// copyFile copy a file from to as efficiently as possible
func copyFile(ctx context.Context, from, to string) (int64, error) {
	src, err := os.Open(from)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := os.Create(to)
	if err != nil {
		return 0, err
	}
	defer dst.Close()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return io.Copy(dst, src)
}
