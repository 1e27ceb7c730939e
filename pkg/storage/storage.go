package storage

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Storage is an extra destination for finished dump artifacts.
type Storage interface {
	// Push copies the local file source to target, a name relative to the storage URL.
	Push(ctx context.Context, target, source string, logger *log.Entry) (int64, error)
	Protocol() string
	URL() string
}
