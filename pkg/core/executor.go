package core

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/databacker/mysql-db-dump/pkg/database"
	"github.com/databacker/mysql-db-dump/pkg/metrics"
)

type Executor struct {
	Logger *log.Logger
	// Inspect reads the server version, GTID mode and catalog. Nil means database.InspectConnection.
	Inspect database.Inspector
	// Stderr receives mysqldump error output when it is not captured to the error log. Nil means os.Stderr.
	Stderr io.Writer
	// Metrics accumulates across runs of the same process. Created on first use.
	Metrics *metrics.Recorder
}

func (e *Executor) SetLogger(logger *log.Logger) {
	e.Logger = logger
}

func (e *Executor) GetLogger() *log.Logger {
	return e.Logger
}

func (e *Executor) inspector() database.Inspector {
	if e.Inspect != nil {
		return e.Inspect
	}
	return database.InspectConnection
}

func (e *Executor) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}

func (e *Executor) metrics() *metrics.Recorder {
	if e.Metrics == nil {
		e.Metrics = metrics.New()
	}
	return e.Metrics
}
