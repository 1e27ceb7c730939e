package database

import (
	"fmt"
	"strconv"

	"github.com/go-ini/ini"
)

const (
	// clientSection is the option group mysql client programs read, mysqldump included.
	clientSection = "client"
	// DefaultPort is the port mysql clients use when neither flags nor a defaults file set one.
	DefaultPort = 3306
)

// ApplyDefaultsFile fills unset connection fields from the [client] group of the
// DefaultsExtraFile, so that the catalog connection uses the same credentials mysqldump
// will. Fields already set win over the file. It is a no-op without a defaults file.
func (c Connection) ApplyDefaultsFile() (Connection, error) {
	if c.DefaultsExtraFile == "" {
		return c, nil
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		SkipUnrecognizableLines: true,
		Insensitive:             true,
	}, c.DefaultsExtraFile)
	if err != nil {
		return c, fmt.Errorf("unable to read defaults file %s: %w", c.DefaultsExtraFile, err)
	}
	sec := cfg.Section(clientSection)
	if c.User == "" {
		c.User = sec.Key("user").String()
	}
	if c.Pass == "" {
		c.Pass = sec.Key("password").String()
	}
	if c.Host == "" {
		if socket := sec.Key("socket").String(); socket != "" {
			c.Host = socket
		} else {
			c.Host = sec.Key("host").String()
		}
	}
	if c.Port == 0 && sec.HasKey("port") {
		port, err := strconv.Atoi(sec.Key("port").String())
		if err != nil {
			return c, fmt.Errorf("invalid port in defaults file %s: %w", c.DefaultsExtraFile, err)
		}
		c.Port = port
	}
	return c, nil
}

// Resolve returns the connection mysqldump will actually make: the defaults file
// applied, then the default port for a tcp connection that still has none.
func (c Connection) Resolve() (Connection, error) {
	c, err := c.ApplyDefaultsFile()
	if err != nil {
		return c, err
	}
	if c.Port == 0 && !c.IsSocket() {
		c.Port = DefaultPort
	}
	return c, nil
}
