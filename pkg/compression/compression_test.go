package compression

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCompressor(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		wantErr bool
	}{
		{"gzip", "gz", false},
		{"gz", "gz", false},
		{"bzip2", "bz2", false},
		{"xz", "xz", false},
		{"zstd", "zst", false},
		{"none", "", false},
		{"lz4", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := GetCompressor(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ext, c.Extension())
		})
	}
}

func TestCompressFile(t *testing.T) {
	content := []byte(strings.Repeat("INSERT INTO `users` VALUES (1,'ann');\n", 200))
	for _, name := range []string{"gzip", "bzip2", "xz", "zstd"} {
		t.Run(name, func(t *testing.T) {
			c, err := GetCompressor(name)
			require.NoError(t, err)

			source := filepath.Join(t.TempDir(), "orders_20240102_030405.sql")
			require.NoError(t, os.WriteFile(source, content, 0o644))

			target, err := CompressFile(source, c)
			require.NoError(t, err)
			assert.Equal(t, source+"."+c.Extension(), target)

			_, err = os.Stat(source)
			assert.True(t, os.IsNotExist(err), "original file should be removed")

			f, err := os.Open(target)
			require.NoError(t, err)
			defer f.Close()
			r, err := c.Uncompress(f)
			require.NoError(t, err)
			var buf bytes.Buffer
			_, err = io.Copy(&buf, r)
			require.NoError(t, err)
			assert.Equal(t, content, buf.Bytes())
		})
	}
}

func TestCompressFileNone(t *testing.T) {
	source := filepath.Join(t.TempDir(), "All_Databases_20240102_030405.sql")
	require.NoError(t, os.WriteFile(source, []byte("-- dump"), 0o644))

	for _, c := range []Compressor{nil, &NoCompressor{}} {
		target, err := CompressFile(source, c)
		require.NoError(t, err)
		assert.Equal(t, source, target)
		assert.FileExists(t, source)
	}
}

func TestCompressFileMissing(t *testing.T) {
	_, err := CompressFile(filepath.Join(t.TempDir(), "missing.sql"), &GzipCompressor{})
	assert.Error(t, err)
}
