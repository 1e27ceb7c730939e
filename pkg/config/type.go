package config

import (
	"github.com/databacker/mysql-db-dump/pkg/database"
)

// ConfigVersion is the only config file version understood.
const ConfigVersion = "v1"

type ConfigSpec struct {
	Version   string    `yaml:"version"`
	Logging   string    `yaml:"logging"`
	Database  Database  `yaml:"database"`
	Dump      Dump      `yaml:"dump"`
	Notify    Notify    `yaml:"notify"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Database is the server profile. Name identifies the server in mail subjects.
type Database struct {
	Name              string                `yaml:"name"`
	Server            string                `yaml:"server"`
	Port              int                   `yaml:"port"`
	DefaultsExtraFile string                `yaml:"defaultsExtraFile"`
	Credentials       DBCredentials         `yaml:"credentials"`
	SSL               *database.SSLSettings `yaml:"ssl"`
	TLSVersions       []string              `yaml:"tlsVersions"`
}

type DBCredentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Dump struct {
	Output       string        `yaml:"output"`
	Compression  string        `yaml:"compression"`
	IgnoreTables []string      `yaml:"ignoreTables"`
	Targets      []string      `yaml:"targets"`
	Scripts      BackupScripts `yaml:"scripts"`
	Schedule     Schedule      `yaml:"schedule"`
	MetricsFile  string        `yaml:"metricsFile"`
}

type BackupScripts struct {
	PreBackup  string `yaml:"preBackup"`
	PostBackup string `yaml:"postBackup"`
}

type Schedule struct {
	Cron      string `yaml:"cron"`
	Frequency int    `yaml:"frequency"`
	Begin     string `yaml:"begin"`
}

type Notify struct {
	To      []string `yaml:"to"`
	Subject string   `yaml:"subject"`
	From    string   `yaml:"from"`
	Mailx   bool     `yaml:"mailx"`
}

type Telemetry struct {
	// URL of an OTLP/HTTP traces endpoint, e.g. http://collector:4318/v1/traces
	URL string `yaml:"url"`
}

// Connection converts the server profile into a database.Connection.
func (d Database) Connection() database.Connection {
	return database.Connection{
		User:              d.Credentials.Username,
		Pass:              d.Credentials.Password,
		Host:              d.Server,
		Port:              d.Port,
		DefaultsExtraFile: d.DefaultsExtraFile,
		SSL:               d.SSL,
		TLSVersions:       d.TLSVersions,
	}
}
