package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/databacker/mysql-db-dump/pkg/config"
	"github.com/databacker/mysql-db-dump/pkg/core"
	"github.com/databacker/mysql-db-dump/pkg/database"
	dblog "github.com/databacker/mysql-db-dump/pkg/log"
	"github.com/databacker/mysql-db-dump/pkg/storage/credentials"
)

// Version is set at build time with -ldflags "-X github.com/databacker/mysql-db-dump/cmd.Version=..."
var Version = "dev"

type execs interface {
	SetLogger(logger *log.Logger)
	GetLogger() *log.Logger
	Dump(ctx context.Context, opts core.DumpOptions) (core.DumpResults, error)
	Timer(timerOpts core.TimerOptions, cmd func() error) error
}

type subCommand func(execs, *cmdConfiguration) (*cobra.Command, error)

var subCommands = []subCommand{dumpCmd}

type cmdConfiguration struct {
	dbconn        database.Connection
	creds         credentials.Creds
	configuration *config.ConfigSpec
	logger        *log.Logger
	lockID        string
	lockDir       string
}

const (
	defaultPort = database.DefaultPort
)

func rootCmd(execs execs) (*cobra.Command, error) {
	var (
		v         *viper.Viper
		cmd       *cobra.Command
		cmdConfig = &cmdConfiguration{}
		ctx       = context.Background()
	)
	cmd = &cobra.Command{
		Use:     "mysql-db-dump",
		Short:   "dump one or more mysql-compatible databases with mysqldump",
		Version: Version,
		Long: `Dump one or more mysql-compatible databases using the mysqldump tool,
		one file per database or all databases in a single file, optionally compressed.
		The error output of mysqldump can be captured to a log and mailed when not empty.
		In addition to the provided command-line flag options and environment variables,
		when copying dumps to s3-storage targets, supports the following AWS options:

		AWS_ACCESS_KEY_ID: AWS Key ID
		AWS_SECRET_ACCESS_KEY: AWS Secret Access Key
		AWS_REGION: Region in which the bucket resides
		AWS_ENDPOINT_URL: Endpoint URL to use instead of default s3.<region>.amazonaws.com
		AWS_PATH_STYLE: Use path-style URLs for S3 requests instead of virtual-hosted-style URLs
		`,
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			bindFlags(cmd, v)
			var logger = log.New()
			logLevel := v.GetInt("verbose")
			debugSet := v.IsSet("debug")
			if !v.IsSet("verbose") && (v.GetBool("debug") || (debugSet && v.GetString("debug") == "true")) {
				logLevel = 1
			}
			switch logLevel {
			case 0:
				logger.SetLevel(log.InfoLevel)
			case 1:
				logger.SetLevel(log.DebugLevel)
			case 2:
				logger.SetLevel(log.TraceLevel)
			}

			// the structure of the config differs quite some from the necessarily flat
			// env vars/CLI flags, so we can't just use viper's automatic config file support.
			var (
				actualConfig    *config.ConfigSpec
				tracerExporters []sdktrace.SpanExporter
			)

			if configFilePath := v.GetString("config-file"); configFilePath != "" {
				var (
					f   *os.File
					err error
				)
				if f, err = os.Open(configFilePath); err != nil {
					return fmt.Errorf("fatal error config file: %w", err)
				}
				defer f.Close()
				actualConfig, err = config.ProcessConfig(f)
				if err != nil {
					return fmt.Errorf("unable to read provided config: %w", err)
				}
			}

			// set up database connection
			if actualConfig != nil {
				cmdConfig.dbconn = actualConfig.Database.Connection()
				cmdConfig.configuration = actualConfig

				if actualConfig.Telemetry.URL != "" {
					exp, err := otlpExporter(ctx, actualConfig.Telemetry.URL)
					if err != nil {
						return fmt.Errorf("unable to set up telemetry: %w", err)
					}
					tracerExporters = append(tracerExporters, exp)
				}
				if actualConfig.Logging != "" {
					level, err := log.ParseLevel(actualConfig.Logging)
					if err != nil {
						return fmt.Errorf("invalid logging level in config: %w", err)
					}
					if !v.IsSet("verbose") && !debugSet {
						logger.SetLevel(level)
					}
				}
			}

			// override config with env var or CLI flag, if set
			dbHost := v.GetString("server")
			if dbHost != "" && v.IsSet("server") {
				cmdConfig.dbconn.Host = dbHost
			}
			dbUser := v.GetString("user")
			if dbUser != "" && v.IsSet("user") {
				cmdConfig.dbconn.User = dbUser
			}
			dbPass := v.GetString("pass")
			if dbPass != "" && v.IsSet("pass") {
				cmdConfig.dbconn.Pass = dbPass
			}
			defaultsFile := v.GetString("defaults-extra-file")
			if defaultsFile != "" && v.IsSet("defaults-extra-file") {
				cmdConfig.dbconn.DefaultsExtraFile = defaultsFile
			}
			// with a defaults file and no explicit port, mysqldump takes the port from the file,
			// so the flag default must not shadow it
			dbPort := v.GetInt("port")
			switch {
			case dbPort != 0 && v.IsSet("port"):
				cmdConfig.dbconn.Port = dbPort
			case cmdConfig.dbconn.Port == 0 && cmdConfig.dbconn.DefaultsExtraFile == "":
				cmdConfig.dbconn.Port = dbPort
			}

			cmdConfig.creds = credentials.Creds{
				AWS: credentials.AWSCreds{
					Endpoint:        v.GetString("aws-endpoint-url"),
					PathStyle:       v.GetBool("aws-path-style"),
					AccessKeyID:     v.GetString("aws-access-key-id"),
					SecretAccessKey: v.GetString("aws-secret-access-key"),
					Region:          v.GetString("aws-region"),
				},
			}
			logger.AddHook(dblog.NewSpanHook(log.InfoLevel))
			cmdConfig.logger = logger
			cmdConfig.lockID = v.GetString("lock-id")
			cmdConfig.lockDir = v.GetString("lock-dir")

			if v.GetBool("trace-stderr") {
				exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
				if err != nil {
					return fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
				}
				tracerExporters = append(tracerExporters, exp)
			}
			var tracerProviderOpts []sdktrace.TracerProviderOption
			for _, exp := range tracerExporters {
				tracerProviderOpts = append(tracerProviderOpts, sdktrace.WithBatcher(exp))
			}
			otel.SetTracerProvider(sdktrace.NewTracerProvider(tracerProviderOpts...))

			return nil
		},
	}

	v = viper.New()
	v.SetEnvPrefix("db")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	pflags := cmd.PersistentFlags()
	pflags.StringP("config-file", "c", "", "config file to use, if any; individual CLI flags override config file")

	// server hostname via CLI or env var
	pflags.String("server", "", "hostname for database server, or absolute path to its unix socket")

	// server port via CLI or env var or default
	pflags.Int("port", defaultPort, "port for database server")

	// user via CLI or env var
	pflags.String("user", "", "username for database server")

	// pass via CLI or env var
	pflags.String("pass", "", "password for database server")

	pflags.String("defaults-extra-file", "", "mysql option file with a [client] section holding credentials; passed to mysqldump instead of the password")

	// debug via CLI or env var or default
	pflags.IntP("verbose", "v", 0, "set log level, 1 is debug, 2 is trace")
	pflags.Bool("debug", false, "set log level to debug, equivalent of --verbose=1; if both set, --verbose always overrides")
	pflags.Bool("trace-stderr", false, "trace to stderr, in addition to any configured telemetry")

	// single instance lock
	pflags.StringP("lock-id", "y", "", "flavor id of the program lock, so that differently configured runs can run at the same time")
	pflags.String("lock-dir", "", "directory for the program lock file; defaults to the system temporary directory")

	// aws options
	pflags.String("aws-endpoint-url", "", "Specify an alternative endpoint for s3 interoperable systems e.g. Digitalocean; ignored if not using s3.")
	pflags.Bool("aws-path-style", false, "Use path-style addressing of buckets instead of default virtual-host-style; ignored if not using s3.")
	pflags.String("aws-access-key-id", "", "Access Key for s3 and s3 interoperable systems; ignored if not using s3.")
	pflags.String("aws-secret-access-key", "", "Secret Access Key for s3 and s3 interoperable systems; ignored if not using s3.")
	pflags.String("aws-region", "", "Region for s3 and s3 interoperable systems; ignored if not using s3.")

	for _, subCmd := range subCommands {
		if sc, err := subCmd(execs, cmdConfig); err != nil {
			return nil, err
		} else {
			cmd.AddCommand(sc)
		}
	}

	return cmd, nil
}

// otlpExporter exports traces over OTLP/HTTP to the collector at rawURL.
func otlpExporter(ctx context.Context, rawURL string) (sdktrace.SpanExporter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid telemetry URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid telemetry URL %s: no host", rawURL)
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(u.Host)}
	if u.Path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(u.Path))
	}
	if u.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

// Bind each cobra flag to its associated viper configuration (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Determine the naming convention of the flags when represented in the config file
		configName := f.Name
		_ = v.BindPFlag(configName, f)
		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(configName) {
			val := v.Get(configName)
			_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
		}
	})
}

// Execute primary function for cobra
func Execute() {
	rootCmd, err := rootCmd(nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
