package compression

import (
	"fmt"
	"io"
	"os"
)

// CompressFile compresses the completed file at source into source.<ext> and removes source,
// the same way gzip(1) replaces its input. It returns the path of the compressed file.
// A nil or pass-through compressor leaves the file in place and returns source.
func CompressFile(source string, c Compressor) (string, error) {
	if c == nil || c.Extension() == "" {
		return source, nil
	}
	target := fmt.Sprintf("%s.%s", source, c.Extension())

	in, err := os.Open(source)
	if err != nil {
		return "", fmt.Errorf("unable to open %s for compression: %w", source, err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("unable to create %s: %w", target, err)
	}
	cw, err := c.Compress(out)
	if err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := io.Copy(cw, in); err != nil {
		cw.Close()
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("error compressing %s: %w", source, err)
	}
	// the compressor must flush before the file is closed
	if err := cw.Close(); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("error finishing compression of %s: %w", source, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("error closing %s: %w", target, err)
	}
	in.Close()
	if err := os.Remove(source); err != nil {
		return target, fmt.Errorf("compressed to %s but could not remove %s: %w", target, source, err)
	}
	return target, nil
}
