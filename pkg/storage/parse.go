package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/databacker/mysql-db-dump/pkg/storage/credentials"
	"github.com/databacker/mysql-db-dump/pkg/storage/file"
	"github.com/databacker/mysql-db-dump/pkg/storage/s3"
)

// ParseURL returns the Storage for a target url. A bare absolute path is a file target.
func ParseURL(raw string, creds credentials.Creds) (Storage, error) {
	u, err := parseTarget(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid target url: %v", err)
	}

	var store Storage
	switch u.Scheme {
	case "file":
		store = file.New(*u)
	case "s3":
		opts := []s3.Option{}
		if creds.AWS.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(creds.AWS.Endpoint))
		}
		if creds.AWS.Region != "" {
			opts = append(opts, s3.WithRegion(creds.AWS.Region))
		}
		if creds.AWS.AccessKeyID != "" {
			opts = append(opts, s3.WithAccessKeyId(creds.AWS.AccessKeyID))
		}
		if creds.AWS.SecretAccessKey != "" {
			opts = append(opts, s3.WithSecretAccessKey(creds.AWS.SecretAccessKey))
		}
		if creds.AWS.PathStyle {
			opts = append(opts, s3.WithPathStyle())
		}
		store = s3.New(*u, opts...)
	default:
		return nil, fmt.Errorf("unknown url protocol: %s", u.Scheme)
	}
	return store, nil
}

func parseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty target")
	}
	if strings.HasPrefix(raw, "/") {
		raw = "file://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "s3" && u.Host == "" {
		return nil, fmt.Errorf("s3 target %s has no bucket", raw)
	}
	return u, nil
}
