package database

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"os"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

const tlsConfigName = "mysql-db-dump"

// Connection is everything needed to reach a server, both for the catalog
// connection made here and for the mysqldump command line.
type Connection struct {
	User string
	Pass string
	// Host is a hostname, or an absolute path to a unix socket.
	Host string
	Port int
	// DefaultsExtraFile is passed to mysqldump as --defaults-extra-file, so that the
	// password does not appear on the command line.
	DefaultsExtraFile string
	SSL               *SSLSettings
	TLSVersions       []string
}

// SSLSettings are the client TLS files and mode, in mysqldump terms.
type SSLSettings struct {
	CA     string `yaml:"ca"`
	CAPath string `yaml:"caPath"`
	Key    string `yaml:"key"`
	Cert   string `yaml:"cert"`
	Mode   string `yaml:"mode"`
}

// Empty reports whether no SSL setting is populated at all.
func (s *SSLSettings) Empty() bool {
	return s == nil || (s.CA == "" && s.CAPath == "" && s.Key == "" && s.Cert == "" && s.Mode == "")
}

// Complete reports whether the settings are enough for a client TLS connection:
// a CA, or both a client key and certificate.
func (s *SSLSettings) Complete() bool {
	return s != nil && (s.CA != "" || (s.Key != "" && s.Cert != ""))
}

// IsSocket reports whether Host names a unix socket.
func (c Connection) IsSocket() bool {
	return strings.HasPrefix(c.Host, "/")
}

// MySQL returns the go-sql-driver DSN for this connection. If useSSL is set,
// the SSL settings are registered as a named TLS config and referenced from the DSN.
func (c Connection) MySQL(useSSL bool) (string, error) {
	config := mysql.NewConfig()
	config.User = c.User
	config.Passwd = c.Pass
	if c.IsSocket() {
		config.Net = "unix"
		config.Addr = c.Host
	} else {
		config.Net = "tcp"
		config.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	config.ParseTime = true
	if useSSL {
		name, err := c.registerTLS()
		if err != nil {
			return "", err
		}
		config.TLSConfig = name
	}
	return config.FormatDSN(), nil
}

// Open opens (but does not ping) a database handle for this connection.
func (c Connection) Open(useSSL bool) (*sql.DB, error) {
	dsn, err := c.MySQL(useSSL)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to database: %w", err)
	}
	return db, nil
}

func (c Connection) registerTLS() (string, error) {
	s := c.SSL
	if s == nil {
		return "preferred", nil
	}
	switch strings.ToUpper(s.Mode) {
	case "DISABLED":
		return "false", nil
	case "PREFERRED":
		if !s.Complete() {
			return "preferred", nil
		}
	}
	tlsConfig := &tls.Config{}
	if min, ok := minTLSVersion(c.TLSVersions); ok {
		tlsConfig.MinVersion = min
	}
	if s.CA != "" {
		pem, err := os.ReadFile(s.CA)
		if err != nil {
			return "", fmt.Errorf("unable to read SSL CA %s: %w", s.CA, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return "", fmt.Errorf("no certificates found in SSL CA %s", s.CA)
		}
		tlsConfig.RootCAs = pool
	}
	if s.Key != "" && s.Cert != "" {
		cert, err := tls.LoadX509KeyPair(s.Cert, s.Key)
		if err != nil {
			return "", fmt.Errorf("unable to load SSL client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	switch strings.ToUpper(s.Mode) {
	case "VERIFY_IDENTITY":
		if !c.IsSocket() {
			tlsConfig.ServerName = c.Host
		}
	case "VERIFY_CA":
		// chain is checked, host name is not
		tlsConfig.InsecureSkipVerify = true
		if tlsConfig.RootCAs != nil {
			tlsConfig.VerifyPeerCertificate = verifyChain(tlsConfig.RootCAs)
		}
	default:
		// REQUIRED: encrypted, unverified, as mysqldump does
		tlsConfig.InsecureSkipVerify = true
	}
	if err := mysql.RegisterTLSConfig(tlsConfigName, tlsConfig); err != nil {
		return "", fmt.Errorf("unable to register TLS config: %w", err)
	}
	return tlsConfigName, nil
}

// verifyChain checks the presented chain against roots without checking the host name.
func verifyChain(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("server presented no certificate")
		}
		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return err
			}
			certs = append(certs, cert)
		}
		intermediates := x509.NewCertPool()
		for _, cert := range certs[1:] {
			intermediates.AddCert(cert)
		}
		_, err := certs[0].Verify(x509.VerifyOptions{Roots: roots, Intermediates: intermediates})
		return err
	}
}

var tlsVersions = map[string]uint16{
	"TLSV1":   tls.VersionTLS10,
	"TLSV1.0": tls.VersionTLS10,
	"TLSV1.1": tls.VersionTLS11,
	"TLSV1.2": tls.VersionTLS12,
	"TLSV1.3": tls.VersionTLS13,
}

func minTLSVersion(versions []string) (uint16, bool) {
	var (
		min   uint16
		found bool
	)
	for _, v := range versions {
		if n, ok := tlsVersions[strings.ToUpper(strings.TrimSpace(v))]; ok && (!found || n < min) {
			min, found = n, true
		}
	}
	return min, found
}
