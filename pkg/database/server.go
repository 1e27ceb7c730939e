package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	version "github.com/hashicorp/go-version"
)

type Variant string

const (
	// VariantMariaDB is the MariaDB variant of MySQL.
	VariantMariaDB Variant = "mariadb"
	// VariantMySQL is the MySQL variant of MySQL.
	VariantMySQL Variant = "mysql"
	// VariantPercona is the Percona variant of MySQL.
	VariantPercona Variant = "percona"

	// gtid_mode first appeared in MySQL 5.6.5
	gtidMinimumVersion = "5.6.5"
)

// schemas that mysqldump cannot dump meaningfully; everything else in SHOW DATABASES is catalog
var (
	excludeSchemaList = []string{"information_schema", "performance_schema"}
	excludeSchemas    = map[string]bool{}
)

func init() {
	for _, schema := range excludeSchemaList {
		excludeSchemas[schema] = true
	}
}

// ServerInfo is what the dump needs to know about the live server.
type ServerInfo struct {
	Version        string
	VersionComment string
	Variant        Variant
	GTIDMode       string
	// Databases is the live catalog, in server order.
	Databases []string
}

// GTIDSupported reports whether mysqldump may be passed --set-gtid-purged for this server.
// MariaDB keeps its own GTID scheme that mysqldump does not understand.
func (s ServerInfo) GTIDSupported() bool {
	if s.Variant == VariantMariaDB {
		return false
	}
	switch strings.ToUpper(s.GTIDMode) {
	case "ON", "ON_PERMISSIVE":
	default:
		return false
	}
	v, err := version.NewVersion(baseVersion(s.Version))
	if err != nil {
		return false
	}
	cutoff, _ := version.NewVersion(gtidMinimumVersion)
	return v.GreaterThanOrEqual(cutoff)
}

// baseVersion strips suffixes such as "-log" or "-0ubuntu0.22.04.1".
func baseVersion(v string) string {
	if i := strings.IndexAny(v, "-+ "); i >= 0 {
		return v[:i]
	}
	return v
}

// Inspector returns the ServerInfo for a connection; InspectConnection is the real one.
type Inspector func(ctx context.Context, conn Connection, useSSL bool) (*ServerInfo, error)

// InspectConnection connects to the server described by conn and inspects it.
func InspectConnection(ctx context.Context, conn Connection, useSSL bool) (*ServerInfo, error) {
	conn, err := conn.Resolve()
	if err != nil {
		return nil, err
	}
	db, err := conn.Open(useSSL)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("unable to connect to server %s: %w", conn.Host, err)
	}
	return Inspect(ctx, db)
}

// Inspect reads version, variant, GTID mode and the database catalog from an open handle.
func Inspect(ctx context.Context, db *sql.DB) (*ServerInfo, error) {
	var info ServerInfo
	if err := db.QueryRowContext(ctx, "SELECT @@version, @@version_comment").Scan(&info.Version, &info.VersionComment); err != nil {
		return nil, fmt.Errorf("failed to query version: %w", err)
	}
	info.Variant = detectVariant(ctx, db, info.Version, info.VersionComment)

	// older servers have no gtid_mode at all, which is the same as OFF
	var gtidMode sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT @@GLOBAL.gtid_mode").Scan(&gtidMode); err != nil || !gtidMode.Valid {
		info.GTIDMode = "OFF"
	} else {
		info.GTIDMode = gtidMode.String
	}

	names, err := GetSchemas(ctx, db)
	if err != nil {
		return nil, err
	}
	info.Databases = names
	return &info, nil
}

// detectVariant uses the version strings, falling back to the Aria engine as a MariaDB marker.
// None of this is 100% reliable, but it should work for most cases.
func detectVariant(ctx context.Context, db *sql.DB, ver, comment string) Variant {
	versionLower := strings.ToLower(ver)
	commentLower := strings.ToLower(comment)
	switch {
	case strings.Contains(versionLower, "mariadb") || strings.Contains(commentLower, "mariadb"):
		return VariantMariaDB
	case strings.Contains(commentLower, "percona"):
		return VariantPercona
	case strings.Contains(commentLower, "mysql"):
		return VariantMySQL
	}
	var dummy string
	if err := db.QueryRowContext(ctx, "SELECT 1 FROM information_schema.engines WHERE engine = 'Aria' LIMIT 1").Scan(&dummy); err == nil {
		return VariantMariaDB
	}
	return VariantMySQL
}

// GetSchemas lists the databases on the server, minus those mysqldump cannot dump.
func GetSchemas(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("could not get schemas: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error getting database name: %w", err)
		}
		if excludeSchemas[strings.ToLower(name)] {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating database rows: %w", err)
	}
	return names, nil
}
