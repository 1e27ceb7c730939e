package core

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/databacker/mysql-db-dump/pkg/database"
)

const (
	toolName = "mysqldump"

	flagDefaultsExtraFile = "--defaults-extra-file="
	flagSocket            = "--socket="
	flagSingleTransaction = "--single-transaction"
	flagGTIDPurgedPrefix  = "--set-gtid-purged"
	flagGTIDPurgedOff     = flagGTIDPurgedPrefix + "=OFF"
	flagTLSVersion        = "--tls-version="
	flagIgnoreTable       = "--ignore-table="

	// DefaultIgnoreTable is skipped unless the caller overrides the extra args.
	DefaultIgnoreTable = "mysql.event"
)

// combinedFlags dumps every database, with its stored programs, into one stream.
var combinedFlags = [...]string{"--all-databases", "--triggers", "--routines", "--events"}

// sslFlags lists the SSL settings in the order they are appended.
var sslFlags = [...]struct {
	flag  string
	value func(*database.SSLSettings) string
}{
	{"--ssl-ca=", func(s *database.SSLSettings) string { return s.CA }},
	{"--ssl-capath=", func(s *database.SSLSettings) string { return s.CAPath }},
	{"--ssl-key=", func(s *database.SSLSettings) string { return s.Key }},
	{"--ssl-cert=", func(s *database.SSLSettings) string { return s.Cert }},
	{"--ssl-mode=", func(s *database.SSLSettings) string { return s.Mode }},
}

// Capabilities are what the server was found to support, fixed before the command is built.
type Capabilities struct {
	GTID bool
}

// CommandOptions select the optional parts of the dump command.
type CommandOptions struct {
	// ToolDir holds mysqldump; empty means look it up on $PATH.
	ToolDir           string
	ExtraArgs         []string
	SingleTransaction bool
	StripGTID         bool
	Combined          bool
	UseSSL            bool
}

// IgnoreTableArgs turns table names into mysqldump --ignore-table flags.
func IgnoreTableArgs(tables []string) []string {
	args := make([]string, 0, len(tables))
	for _, t := range tables {
		args = append(args, flagIgnoreTable+t)
	}
	return args
}

// DumpCommand is a finished mysqldump argv. It is never modified once built;
// per-target command lines are derived copies.
type DumpCommand struct {
	args []string
	// password is kept so String can redact it
	password string
}

// Args returns a copy of the base argv, program first.
func (d DumpCommand) Args() []string {
	return append([]string(nil), d.args...)
}

// Path is the mysqldump program to execute.
func (d DumpCommand) Path() string {
	if len(d.args) == 0 {
		return ""
	}
	return d.args[0]
}

// For returns a fresh argv for one target. A database target gets its name
// appended; the combined target gets the base argv.
func (d DumpCommand) For(t Target) []string {
	args := make([]string, len(d.args), len(d.args)+1)
	copy(args, d.args)
	if !t.Combined {
		args = append(args, t.Name)
	}
	return args
}

// String renders the command line with the password masked, for logging.
func (d DumpCommand) String() string {
	args := d.Args()
	if d.password != "" {
		for i, a := range args {
			if a == "-p"+d.password {
				args[i] = "-p********"
			}
		}
	}
	return strings.Join(args, " ")
}

// BuildCommand assembles the base mysqldump command from the connection, the server
// capabilities and the options. It has no side effects.
func BuildCommand(conn database.Connection, caps Capabilities, opts CommandOptions) (DumpCommand, error) {
	args := []string{filepath.Join(opts.ToolDir, toolName)}
	args = append(args, connectionArgs(conn)...)

	for _, a := range opts.ExtraArgs {
		if !caps.GTID && strings.HasPrefix(a, flagGTIDPurgedPrefix) {
			continue
		}
		args = append(args, a)
	}

	if opts.SingleTransaction {
		args = append(args, flagSingleTransaction)
	}
	if opts.Combined {
		args = append(args, combinedFlags[:]...)
	}
	if opts.StripGTID && caps.GTID && !contains(args, flagGTIDPurgedOff) {
		args = append(args, flagGTIDPurgedOff)
	}

	if opts.UseSSL {
		sslArgs, err := sslArgs(conn.SSL)
		if err != nil {
			return DumpCommand{}, err
		}
		args = append(args, sslArgs...)
		if len(conn.TLSVersions) > 0 {
			args = append(args, flagTLSVersion+strings.Join(conn.TLSVersions, ","))
		}
	}

	cmd := DumpCommand{args: args}
	if conn.DefaultsExtraFile == "" {
		cmd.password = conn.Pass
	}
	return cmd, nil
}

func connectionArgs(conn database.Connection) []string {
	var args []string
	if conn.DefaultsExtraFile != "" {
		args = append(args, flagDefaultsExtraFile+conn.DefaultsExtraFile)
	}
	if conn.User != "" {
		args = append(args, "-u", conn.User)
	}
	if conn.DefaultsExtraFile == "" && conn.Pass != "" {
		args = append(args, "-p"+conn.Pass)
	}
	switch {
	case conn.IsSocket():
		args = append(args, flagSocket+conn.Host)
	case conn.Host != "":
		args = append(args, "-h", conn.Host)
		if conn.Port != 0 {
			args = append(args, "-P", strconv.Itoa(conn.Port))
		}
	}
	return args
}

func sslArgs(s *database.SSLSettings) ([]string, error) {
	if s.Empty() {
		return nil, &ConfigError{Setting: "ssl", Err: ErrSSLEntriesMissing}
	}
	if !s.Complete() {
		return nil, &ConfigError{Setting: "ssl", Err: ErrSSLValuesMissing}
	}
	var args []string
	for _, f := range sslFlags {
		if v := f.value(s); v != "" {
			args = append(args, f.flag+v)
		}
	}
	return args, nil
}

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
