package storage

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/databacker/mysql-db-dump/pkg/storage/credentials"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url      string
		protocol string
		wantErr  bool
	}{
		{"/var/backups", "file", false},
		{"file:///var/backups", "file", false},
		{"s3://bucket/path", "s3", false},
		{"smb://host/share", "", true},
		{"ftp://host/path", "", true},
		{"  /var/backups ", "file", false},
		{"", "", true},
		{"s3:///path", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			store, err := ParseURL(tt.url, credentials.Creds{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.protocol, store.Protocol())
		})
	}
}

func TestPush(t *testing.T) {
	content := []byte("-- MySQL dump\nCREATE TABLE t (id int);\n")
	logger := log.New()
	logger.Out = io.Discard
	entry := log.NewEntry(logger)

	for _, targetType := range []string{"file", "s3"} {
		t.Run(targetType, func(t *testing.T) {
			ctx := context.Background()
			srcFile := filepath.Join(t.TempDir(), "orders_20240102_030405.sql.gz")
			require.NoError(t, os.WriteFile(srcFile, content, 0o644))

			var (
				store    Storage
				err      error
				readBack func(name string) []byte
			)
			switch targetType {
			case "file":
				workDir := t.TempDir()
				store, err = ParseURL(fmt.Sprintf("file://%s/nightly", workDir), credentials.Creds{})
				require.NoError(t, err)
				readBack = func(name string) []byte {
					b, err := os.ReadFile(filepath.Join(workDir, "nightly", name))
					require.NoError(t, err)
					return b
				}
			case "s3":
				bucketName := "mytestbucket"
				s3backend := s3mem.New()
				require.NoError(t, s3backend.CreateBucket(bucketName))
				s3server := httptest.NewServer(gofakes3.New(s3backend).Server())
				defer s3server.Close()
				store, err = ParseURL(fmt.Sprintf("s3://%s/nightly", bucketName), credentials.Creds{AWS: credentials.AWSCreds{
					Endpoint:        s3server.URL,
					AccessKeyID:     "abcdefg",
					SecretAccessKey: "1234567",
					Region:          "us-east-1",
					PathStyle:       true,
				}})
				require.NoError(t, err)
				readBack = func(name string) []byte {
					obj, err := s3backend.GetObject(bucketName, "nightly/"+name, nil)
					require.NoError(t, err)
					defer obj.Contents.Close()
					b, err := io.ReadAll(obj.Contents)
					require.NoError(t, err)
					return b
				}
			}

			n, err := store.Push(ctx, filepath.Base(srcFile), srcFile, entry)
			require.NoError(t, err)
			assert.EqualValues(t, len(content), n)
			assert.Equal(t, content, readBack(filepath.Base(srcFile)))
		})
	}
}
