package core

import (
	"github.com/databacker/mysql-db-dump/pkg/compression"
	"github.com/databacker/mysql-db-dump/pkg/database"
	"github.com/databacker/mysql-db-dump/pkg/storage"
	"github.com/google/uuid"
)

type DumpOptions struct {
	DBConn database.Connection
	Scope  Scope
	// OutputDir receives the dump files and the error log.
	OutputDir       string
	CreateOutputDir bool
	// ToolDir holds the mysqldump binary; empty means $PATH.
	ToolDir           string
	ExtraArgs         []string
	SingleTransaction bool
	StripGTID         bool
	UseSSL            bool
	// Compressor is applied to each finished dump file. Nil leaves plain .sql files.
	Compressor compression.Compressor
	// CaptureStderr sends mysqldump error output to ErrOut_<timestamp>.log in OutputDir.
	CaptureStderr bool
	// Notifier is sent the error log when it is not empty. Only used with CaptureStderr.
	Notifier          Notifier
	UseMailx          bool
	Targets           []storage.Storage
	PreBackupScripts  string
	PostBackupScripts string
	MetricsFile       string
	Run               uuid.UUID
}
