package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/databacker/mysql-db-dump/pkg/compression"
	"github.com/databacker/mysql-db-dump/pkg/core"
	"github.com/databacker/mysql-db-dump/pkg/notify"
	"github.com/databacker/mysql-db-dump/pkg/storage"
	"github.com/databacker/mysql-db-dump/pkg/util"
)

const (
	defaultCompression = compression.DefaultCompression
	defaultBegin       = "+0"
)

func dumpCmd(passedExecs execs, cmdConfig *cmdConfiguration) (*cobra.Command, error) {
	if cmdConfig == nil {
		return nil, fmt.Errorf("cmdConfig is nil")
	}
	var v *viper.Viper
	var cmd = &cobra.Command{
		Use:     "dump",
		Aliases: []string{"backup"},
		Short:   "dump databases with mysqldump",
		Long: `Dump databases with mysqldump into an output directory, once or on a schedule.
		Choose exactly one of: named databases (--databases), every database in its own
		file (--all), or every database in a single file (--all-combined). Dumps are named
		<database>_<YYYYmmdd_HHMMSS>.sql, or All_Databases_<YYYYmmdd_HHMMSS>.sql.
		With --capture-stderr, mysqldump errors go to ErrOut_<YYYYmmdd_HHMMSS>.log in the
		output directory, which is mailed to --email recipients when it is not empty.`,
		PreRun: func(cmd *cobra.Command, args []string) {
			bindFlags(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			tracer := getTracer("dump")
			defer flushTracing(ctx)
			ctx = util.ContextWithTracer(ctx, tracer)
			_, startupSpan := tracer.Start(ctx, "startup")
			logger := cmdConfig.logger
			configuration := cmdConfig.configuration
			logger.Debug("starting dump")

			// what to dump
			databases := v.GetStringSlice("databases")
			var scope core.Scope
			switch {
			case v.GetBool("all-combined"):
				scope = core.Combined()
			case v.GetBool("all"):
				scope = core.AllDatabases()
			case len(databases) > 0:
				scope = core.Explicit(databases...)
			default:
				startupSpan.End()
				return errors.New("one of --databases, --all or --all-combined is required")
			}

			// where to put it
			output := v.GetString("output")
			if output == "" && configuration != nil {
				output = configuration.Dump.Output
			}
			if output == "" {
				startupSpan.End()
				return errors.New("an output directory is required, with --output or in the config file")
			}

			// extra storage targets
			targetURLs := v.GetStringSlice("target")
			if len(targetURLs) == 0 && configuration != nil {
				targetURLs = configuration.Dump.Targets
			}
			var targets []storage.Storage
			for _, t := range targetURLs {
				store, err := storage.ParseURL(t, cmdConfig.creds)
				if err != nil {
					startupSpan.End()
					return fmt.Errorf("invalid target url: %v", err)
				}
				targets = append(targets, store)
			}

			// compression algorithm: check config, then CLI/env var overrides
			var compressor compression.Compressor
			compress := v.GetBool("compress")
			compressionAlgo := defaultCompression
			if configuration != nil && configuration.Dump.Compression != "" {
				compressionAlgo = configuration.Dump.Compression
				compress = true
			}
			if v.IsSet("compression") {
				compressionAlgo = v.GetString("compression")
				compress = true
			}
			if compress {
				var err error
				compressor, err = compression.GetCompressor(compressionAlgo)
				if err != nil {
					startupSpan.End()
					return fmt.Errorf("failure to get compression '%s': %v", compressionAlgo, err)
				}
			}

			ignoreTables := v.GetStringSlice("ignore-table")
			if !v.IsSet("ignore-table") && configuration != nil && configuration.Dump.IgnoreTables != nil {
				ignoreTables = configuration.Dump.IgnoreTables
			}

			preBackupScripts := v.GetString("pre-backup-scripts")
			if preBackupScripts == "" && configuration != nil {
				preBackupScripts = configuration.Dump.Scripts.PreBackup
			}
			postBackupScripts := v.GetString("post-backup-scripts")
			if postBackupScripts == "" && configuration != nil {
				postBackupScripts = configuration.Dump.Scripts.PostBackup
			}
			metricsFile := v.GetString("metrics-file")
			if metricsFile == "" && configuration != nil {
				metricsFile = configuration.Dump.MetricsFile
			}

			// error mail
			captureStderr := v.GetBool("capture-stderr")
			emails := v.GetStringSlice("email")
			if len(emails) == 0 && configuration != nil {
				emails = configuration.Notify.To
			}
			subject := v.GetString("subject")
			useMailx := v.GetBool("mailx")
			if len(emails) == 0 && (subject != "" || useMailx) {
				startupSpan.End()
				return errors.New("--subject and --mailx require --email")
			}
			var notifier core.Notifier
			if len(emails) > 0 {
				mail := &notify.Mail{To: emails, Subject: subject, Server: cmdConfig.dbconn.Host}
				if configuration != nil {
					if mail.Subject == "" {
						mail.Subject = configuration.Notify.Subject
					}
					mail.From = configuration.Notify.From
					useMailx = useMailx || configuration.Notify.Mailx
					if configuration.Database.Name != "" {
						mail.Server = configuration.Database.Name
					}
				}
				if captureStderr {
					notifier = mail
				} else {
					logger.Warn("--email has no effect without --capture-stderr")
				}
			}

			dumpOpts := core.DumpOptions{
				DBConn:            cmdConfig.dbconn,
				Scope:             scope,
				OutputDir:         output,
				CreateOutputDir:   v.GetBool("create-output-dir"),
				ToolDir:           v.GetString("bin-dir"),
				ExtraArgs:         core.IgnoreTableArgs(ignoreTables),
				SingleTransaction: v.GetBool("single-transaction"),
				StripGTID:         v.GetBool("strip-gtid"),
				UseSSL:            v.GetBool("ssl"),
				Compressor:        compressor,
				CaptureStderr:     captureStderr,
				Notifier:          notifier,
				UseMailx:          useMailx,
				Targets:           targets,
				PreBackupScripts:  preBackupScripts,
				PostBackupScripts: postBackupScripts,
				MetricsFile:       metricsFile,
			}

			// timer options
			cron := v.GetString("cron")
			if cron == "" && configuration != nil {
				cron = configuration.Dump.Schedule.Cron
			}
			begin := v.GetString("begin")
			if !v.IsSet("begin") && configuration != nil && configuration.Dump.Schedule.Begin != "" {
				begin = configuration.Dump.Schedule.Begin
			}
			frequency := v.GetInt("frequency")
			if frequency == 0 && configuration != nil {
				frequency = configuration.Dump.Schedule.Frequency
			}
			timerOpts := core.TimerOptions{
				Once:      cron == "" && frequency == 0,
				Cron:      cron,
				Begin:     begin,
				Frequency: frequency,
			}

			var executor execs
			executor = &core.Executor{}
			if passedExecs != nil {
				executor = passedExecs
			}
			executor.SetLogger(logger)
			startupSpan.End()

			lock, err := util.AcquireLock(cmdConfig.lockDir, cmdConfig.lockID)
			if errors.Is(err, util.ErrLocked) {
				logger.Warnf("Lock in place for mysql-db-dump with id: %s", cmdConfig.lockID)
				return nil
			}
			if err != nil {
				return err
			}
			defer lock.Release()

			if err := executor.Timer(timerOpts, func() error {
				dumpOpts.Run = uuid.New()
				results, err := executor.Dump(ctx, dumpOpts)
				if err != nil {
					return fmt.Errorf("error running dump: %w", err)
				}
				if results.Failed() {
					executor.GetLogger().Warnf("dump %s finished with errors", results.Timestamp)
				}
				return nil
			}); err != nil {
				return err
			}
			executor.GetLogger().Info("Dump complete")
			return nil
		},
	}

	v = viper.New()
	v.SetEnvPrefix("db_dump")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	// scope
	flags.StringSliceP("databases", "B", []string{}, "names of databases to dump, one file each; names not on the server are skipped with a warning")
	flags.BoolP("all", "A", false, "dump every database on the server, one file each")
	flags.BoolP("all-combined", "D", false, "dump every database on the server into a single file")

	// output
	flags.StringP("output", "o", "", "directory for the dump files and error log")
	flags.Bool("create-output-dir", true, "create the output directory if it does not exist")

	// mysqldump options
	flags.BoolP("single-transaction", "s", false, "pass --single-transaction to mysqldump, for a consistent InnoDB snapshot without locking")
	flags.BoolP("strip-gtid", "r", false, "pass --set-gtid-purged=OFF to mysqldump; ignored if the server does not support GTIDs")
	flags.StringP("bin-dir", "p", "", "directory holding the mysqldump binary; defaults to searching $PATH")
	flags.BoolP("ssl", "l", false, "connect with SSL, using the ssl and tlsVersions settings of the config file")
	flags.StringSlice("ignore-table", []string{core.DefaultIgnoreTable}, "tables to skip, as database.table; repeat for more")

	// compression
	flags.BoolP("compress", "z", false, "compress each dump file once it is complete")
	flags.String("compression", defaultCompression, "Compression to use. Supported are: `gzip`, `bzip2`, `xz`, `zstd`, `none`")

	// error capture and mail
	flags.BoolP("capture-stderr", "w", false, "write mysqldump error output to ErrOut_<timestamp>.log in the output directory")
	flags.StringSliceP("email", "e", []string{}, "mail the error log, if not empty, to these addresses")
	flags.StringP("subject", "t", "", "subject for the error log mail; defaults to '<server>: mysql_db_dump: <timestamp>'")
	flags.BoolP("mailx", "u", false, "send the error log mail with mailx instead of sendmail")

	// target - where the dumps are copied to
	flags.StringSlice("target", []string{}, `full URL of extra locations to copy each finished dump to. Accepts multiple targets. Supports two formats:
Local: If if starts with a "/" character of "file:///", will copy to a local path.
S3: If it is a URL of the format s3://bucketname/path then it will connect via S3 protocol.`)

	// pre-backup scripts
	flags.String("pre-backup-scripts", "", "Directory wherein any executable file will be run pre-backup.")

	// post-backup scripts
	flags.String("post-backup-scripts", "", "Directory wherein any executable file will be run post-backup.")

	flags.String("metrics-file", "", "write prometheus metrics for the run to this file, for the node-exporter textfile collector")

	// frequency
	flags.Int("frequency", 0, "how often to run dumps, in minutes; 0 runs once")

	// begin
	flags.String("begin", defaultBegin, "What time to do the first dump. Must be in one of two formats: Absolute: HHMM, e.g. `2330` or `0415`; or Relative: +MM, i.e. how many minutes after starting, e.g. `+0` (immediate), `+10` (in 10 minutes), or `+90` in an hour and a half")

	// cron
	flags.String("cron", "", "Set the dump schedule using standard [crontab syntax](https://en.wikipedia.org/wiki/Cron), a single line.")

	cmd.MarkFlagsMutuallyExclusive("databases", "all", "all-combined")
	cmd.MarkFlagsMutuallyExclusive("cron", "begin")
	cmd.MarkFlagsMutuallyExclusive("cron", "frequency")

	return cmd, nil
}
