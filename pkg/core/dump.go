package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/databacker/mysql-db-dump/pkg/compression"
	"github.com/databacker/mysql-db-dump/pkg/util"
)

const (
	TimestampFormat = "20060102_150405"

	combinedFilePrefix = "All_Databases"
	errorLogPrefix     = "ErrOut"
)

// DumpFileName is the name of the uncompressed dump file for a target.
func DumpFileName(t Target, timestamp string) string {
	if t.Combined {
		return fmt.Sprintf("%s_%s.sql", combinedFilePrefix, timestamp)
	}
	return fmt.Sprintf("%s_%s.sql", t.Name, timestamp)
}

// ErrorLogName is the name of the run's captured stderr log.
func ErrorLogName(timestamp string) string {
	return fmt.Sprintf("%s_%s.log", errorLogPrefix, timestamp)
}

// Dump run a single dump, based on the provided opts
func (e *Executor) Dump(ctx context.Context, opts DumpOptions) (results DumpResults, err error) {
	tracer := util.GetTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "dump")
	defer span.End()

	now := time.Now()
	results = DumpResults{Start: now, Timestamp: now.Format(TimestampFormat)}
	defer func() {
		results.End = time.Now()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	logger := e.Logger.WithContext(ctx).WithField("run", opts.Run.String())
	logger.Level = e.Logger.Level
	logger.Infof("beginning dump %s", results.Timestamp)

	if err := prepareOutputDir(opts.OutputDir, opts.CreateOutputDir); err != nil {
		return results, err
	}

	info, err := e.inspector()(ctx, opts.DBConn, opts.UseSSL)
	if err != nil {
		return results, fmt.Errorf("failed to inspect database server: %w", err)
	}
	caps := Capabilities{GTID: info.GTIDSupported()}
	results.GTIDSupported = caps.GTID
	logger.Debugf("server %s (%s), gtid_mode %s", info.Version, info.Variant, info.GTIDMode)

	cmd, err := BuildCommand(opts.DBConn, caps, CommandOptions{
		ToolDir:           opts.ToolDir,
		ExtraArgs:         opts.ExtraArgs,
		SingleTransaction: opts.SingleTransaction,
		StripGTID:         opts.StripGTID,
		Combined:          opts.Scope.Kind == ScopeCombined,
		UseSSL:            opts.UseSSL,
	})
	if err != nil {
		return results, err
	}
	results.Command = cmd.String()
	logger.Debugf("dump command: %s", results.Command)

	targets, warnings := ResolveTargets(info.Databases, opts.Scope)
	for _, w := range warnings {
		logger.Warn(w)
	}
	if len(targets) == 0 {
		warnings = append(warnings, "no databases to dump")
		logger.Warn("no databases to dump")
	}
	results.Warnings = warnings
	span.SetAttributes(attribute.Int("targets", len(targets)))

	debug := e.Logger.Level >= log.DebugLevel
	if err := preBackup(ctx, results.Timestamp, opts.OutputDir, opts.PreBackupScripts, debug); err != nil {
		return results, fmt.Errorf("error running pre-backup: %v", err)
	}

	stderr := e.stderr()
	var errLog *os.File
	if opts.CaptureStderr {
		results.ErrorLog = filepath.Join(opts.OutputDir, ErrorLogName(results.Timestamp))
		if errLog, err = os.OpenFile(results.ErrorLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
			return results, fmt.Errorf("failed to open error log %s: %w", results.ErrorLog, err)
		}
		stderr = errLog
	}

	rec := e.metrics()
	var artifacts []string
	for _, t := range targets {
		r := e.dumpTarget(ctx, logger, cmd, t, opts, results.Timestamp, stderr)
		rec.ObserveTarget(t.String(), r.Err == nil, r.End.Sub(r.Start), r.Size)
		results.Targets = append(results.Targets, r)
		artifacts = append(artifacts, r.Artifact())
	}

	if errLog != nil {
		if err := errLog.Close(); err != nil {
			logger.Errorf("error closing error log %s: %v", results.ErrorLog, err)
		}
		if opts.Notifier != nil {
			sent, err := RelayErrors(ctx, results.ErrorLog, opts.Notifier, opts.UseMailx, logger)
			results.NotificationSent = sent
			if err != nil {
				results.NotifyErr = err
				logger.Errorf("unable to send error log notification: %v", err)
			}
		}
	}

	if err := postBackup(ctx, results.Timestamp, opts.OutputDir, artifacts, opts.PostBackupScripts, debug); err != nil {
		return results, fmt.Errorf("error running post-backup: %v", err)
	}

	if opts.MetricsFile != "" {
		rec.RunFinished(time.Now())
		if err := rec.WriteTextfile(opts.MetricsFile); err != nil {
			logger.Errorf("%v", err)
		}
	}
	span.SetStatus(codes.Ok, fmt.Sprintf("dumped %d targets", len(results.Targets)))
	return results, nil
}

// dumpTarget runs mysqldump for one target with stdout to its dump file. A failure is
// recorded in the result and never stops the caller.
func (e *Executor) dumpTarget(ctx context.Context, logger *log.Entry, cmd DumpCommand, t Target, opts DumpOptions, timestamp string, stderr io.Writer) (r TargetResult) {
	tracer := util.GetTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "dump_target", trace.WithAttributes(attribute.String("database", t.String())))
	defer span.End()

	r = TargetResult{
		Target:     t,
		OutputFile: filepath.Join(opts.OutputDir, DumpFileName(t, timestamp)),
		Start:      time.Now(),
	}
	defer func() {
		r.End = time.Now()
		if r.Err != nil {
			span.SetStatus(codes.Error, r.Err.Error())
		}
	}()
	tlog := logger.WithContext(ctx).WithField("database", t.String())

	f, err := os.Create(r.OutputFile)
	if err != nil {
		r.ExitCode = -1
		r.Err = fmt.Errorf("failed to create dump file %s: %w", r.OutputFile, err)
		tlog.Warn(r.Err)
		return r
	}
	args := cmd.For(t)
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdout = f
	c.Stderr = stderr
	tlog.Debugf("dumping to %s", r.OutputFile)
	runErr := c.Run()
	if err := f.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("error closing dump file %s: %w", r.OutputFile, err)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			r.ExitCode = exitErr.ExitCode()
			tlog.Warnf("mysqldump exited with code %d", r.ExitCode)
		} else {
			r.ExitCode = -1
			tlog.Warnf("failed to run mysqldump: %v", runErr)
		}
		r.Err = runErr
	}

	// compress only once the process has exited and the file is complete
	if opts.Compressor != nil {
		compressed, err := compression.CompressFile(r.OutputFile, opts.Compressor)
		switch {
		case err != nil:
			tlog.Errorf("compression failed: %v", err)
			if r.Err == nil {
				r.Err = err
			}
		case compressed != r.OutputFile:
			r.CompressedFile = compressed
		}
	}
	if fi, err := os.Stat(r.Artifact()); err == nil {
		r.Size = fi.Size()
	}
	tlog.Infof("wrote %s (%s)", filepath.Base(r.Artifact()), humanize.Bytes(uint64(r.Size)))
	span.SetAttributes(attribute.Int64("size", r.Size), attribute.Int("exitCode", r.ExitCode))

	if r.Err != nil {
		return r
	}
	for _, s := range opts.Targets {
		u := UploadResult{Target: s.URL(), Filename: filepath.Base(r.Artifact()), Start: time.Now()}
		tlog.Debugf("uploading via protocol %s from %s to %s", s.Protocol(), r.Artifact(), u.Filename)
		copied, err := s.Push(ctx, u.Filename, r.Artifact(), tlog)
		u.End = time.Now()
		if err != nil {
			u.Err = err
			tlog.Errorf("failed to push %s to %s: %v", u.Filename, s.URL(), err)
		} else {
			tlog.Debugf("completed copying %s to %s", humanize.Bytes(uint64(copied)), s.URL())
		}
		r.Uploads = append(r.Uploads, u)
	}
	return r
}

// prepareOutputDir makes sure dir exists, creating it only if allowed.
func prepareOutputDir(dir string, create bool) error {
	if dir == "" {
		return &ConfigError{Setting: "output", Err: errors.New("no output directory given")}
	}
	fi, err := os.Stat(dir)
	switch {
	case err == nil && !fi.IsDir():
		return &ConfigError{Setting: "output", Err: fmt.Errorf("%s is not a directory", dir)}
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("unable to check output directory %s: %w", dir, err)
	case !create:
		return &ConfigError{Setting: "output", Err: fmt.Errorf("%s: %w", dir, ErrOutputDirMissing)}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
