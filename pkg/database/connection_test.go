package database

import (
	"os"
	"path/filepath"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	tests := []struct {
		name string
		conn Connection
		net  string
		addr string
	}{
		{"tcp", Connection{User: "backup", Pass: "secret", Host: "db.example.com", Port: 3307}, "tcp", "db.example.com:3307"},
		{"socket", Connection{User: "backup", Host: "/var/run/mysqld/mysqld.sock"}, "unix", "/var/run/mysqld/mysqld.sock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := tt.conn.MySQL(false)
			require.NoError(t, err)
			cfg, err := mysql.ParseDSN(dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.net, cfg.Net)
			assert.Equal(t, tt.addr, cfg.Addr)
			assert.Equal(t, tt.conn.User, cfg.User)
			assert.Equal(t, tt.conn.Pass, cfg.Passwd)
			assert.True(t, cfg.ParseTime)
		})
	}
}

func TestMySQLDSNPreferredSSL(t *testing.T) {
	conn := Connection{User: "u", Host: "h", Port: 3306, SSL: &SSLSettings{Mode: "PREFERRED"}}
	dsn, err := conn.MySQL(true)
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.TLSConfig)
}

func TestMySQLDSNMissingCA(t *testing.T) {
	conn := Connection{User: "u", Host: "h", Port: 3306, SSL: &SSLSettings{CA: "/nonexistent/ca.pem", Mode: "VERIFY_CA"}}
	_, err := conn.MySQL(true)
	assert.ErrorContains(t, err, "unable to read SSL CA")
}

func TestSSLSettings(t *testing.T) {
	var nilSettings *SSLSettings
	assert.True(t, nilSettings.Empty())
	assert.False(t, nilSettings.Complete())
	assert.True(t, (&SSLSettings{}).Empty())
	assert.False(t, (&SSLSettings{Mode: "REQUIRED"}).Empty())
	assert.True(t, (&SSLSettings{CA: "/ca.pem"}).Complete())
	assert.True(t, (&SSLSettings{Key: "/key.pem", Cert: "/cert.pem"}).Complete())
	assert.False(t, (&SSLSettings{Cert: "/cert.pem"}).Complete())
}

func TestMinTLSVersion(t *testing.T) {
	v, ok := minTLSVersion([]string{"TLSv1.3", "TLSv1.2"})
	assert.True(t, ok)
	assert.EqualValues(t, 0x0303, v)
	_, ok = minTLSVersion([]string{"SSLv3"})
	assert.False(t, ok)
}

func TestApplyDefaultsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "mysql.cfg")
	content := `[client]
password="s3cret"
socket=/var/lib/mysql/mysql.sock
port=3310
skip-ssl

[mysqldump]
quick
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	conn, err := Connection{User: "backup", DefaultsExtraFile: file}.ApplyDefaultsFile()
	require.NoError(t, err)
	assert.Equal(t, "backup", conn.User)
	assert.Equal(t, "s3cret", conn.Pass)
	assert.Equal(t, "/var/lib/mysql/mysql.sock", conn.Host)
	assert.Equal(t, 3310, conn.Port)

	// explicit values win
	conn, err = Connection{Pass: "cli", Host: "db", Port: 3306, DefaultsExtraFile: file}.ApplyDefaultsFile()
	require.NoError(t, err)
	assert.Equal(t, "cli", conn.Pass)
	assert.Equal(t, "db", conn.Host)
	assert.Equal(t, 3306, conn.Port)

	// no file, no change
	orig := Connection{User: "x"}
	conn, err = orig.ApplyDefaultsFile()
	require.NoError(t, err)
	assert.Equal(t, orig, conn)

	_, err = Connection{DefaultsExtraFile: filepath.Join(t.TempDir(), "missing.cfg")}.ApplyDefaultsFile()
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	withPort := filepath.Join(dir, "port.cnf")
	require.NoError(t, os.WriteFile(withPort, []byte("[client]\nhost=dbx\nport=3307\n"), 0o600))
	noPort := filepath.Join(dir, "noport.cnf")
	require.NoError(t, os.WriteFile(noPort, []byte("[client]\nhost=dbx\n"), 0o600))

	tests := []struct {
		name string
		conn Connection
		host string
		port int
	}{
		{"port from file", Connection{DefaultsExtraFile: withPort}, "dbx", 3307},
		{"default port after file", Connection{DefaultsExtraFile: noPort}, "dbx", DefaultPort},
		{"explicit port over file", Connection{Port: 3310, DefaultsExtraFile: withPort}, "dbx", 3310},
		{"no file", Connection{Host: "db"}, "db", DefaultPort},
		{"socket keeps no port", Connection{Host: "/var/run/mysqld/mysqld.sock"}, "/var/run/mysqld/mysqld.sock", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := tt.conn.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.host, conn.Host)
			assert.Equal(t, tt.port, conn.Port)
		})
	}
}
