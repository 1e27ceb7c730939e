package core

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func scriptEnv(timestamp, dumpdir string, dumpfiles []string, debug bool) map[string]string {
	return map[string]string{
		"NOW":           timestamp,
		"DUMPDIR":       dumpdir,
		"DUMPFILE":      strings.Join(dumpfiles, " "),
		"DB_DUMP_DEBUG": fmt.Sprintf("%v", debug),
	}
}

// run pre-backup scripts, if they exist
func preBackup(ctx context.Context, timestamp, dumpdir, preBackupDir string, debug bool) error {
	return runScripts(ctx, preBackupDir, scriptEnv(timestamp, dumpdir, nil, debug))
}

// run post-backup scripts, if they exist; DUMPFILE lists the artifacts, space separated
func postBackup(ctx context.Context, timestamp, dumpdir string, dumpfiles []string, postBackupDir string, debug bool) error {
	return runScripts(ctx, postBackupDir, scriptEnv(timestamp, dumpdir, dumpfiles, debug))
}

// runScripts runs every executable file in dir, in name order.
func runScripts(ctx context.Context, dir string, env map[string]string) error {
	if dir == "" {
		return nil
	}
	files, err := os.ReadDir(dir)
	// if the directory does not exist, do not worry about it
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading scripts directory %s: %v", dir, err)
	}
	envSlice := os.Environ()
	for k, v := range env {
		envSlice = append(envSlice, fmt.Sprintf("%s=%s", k, v))
	}
	for _, f := range files {
		// ignore directories and any files we cannot execute
		fi, err := f.Info()
		if err != nil {
			return fmt.Errorf("error getting file info %s: %v", f.Name(), err)
		}
		if f.IsDir() || fi.Mode()&0111 == 0 {
			continue
		}
		cmd := exec.CommandContext(ctx, filepath.Join(dir, f.Name()))
		cmd.Env = envSlice
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("error running file %s: %v: %s", f.Name(), err, strings.TrimSpace(string(out)))
		}
	}
	return nil
}
