package core

import (
	"errors"
	"fmt"
)

var (
	ErrSSLEntriesMissing = errors.New("configuration missing SSL entries")
	ErrSSLValuesMissing  = errors.New("one or more values missing for required SSL settings")
	ErrOutputDirMissing  = errors.New("output directory does not exist")
)

// ConfigError is a configuration problem found before any dump starts. The run is aborted.
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Setting == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
