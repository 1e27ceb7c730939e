package config

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ProcessConfig reads the configuration from a stream and returns the parsed configuration.
func ProcessConfig(r io.Reader) (*ConfigSpec, error) {
	var conf ConfigSpec
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil {
		if errors.Is(err, io.EOF) {
			return &conf, nil
		}
		return nil, fmt.Errorf("fatal error reading config file: %w", err)
	}

	// check that the version is something we recognize; empty means current
	if conf.Version != "" && conf.Version != ConfigVersion {
		return nil, fmt.Errorf("unknown config version: %s", conf.Version)
	}
	if conf.Database.Port < 0 || conf.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database port: %d", conf.Database.Port)
	}
	return &conf, nil
}
