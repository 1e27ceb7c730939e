package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Notifier collects message lines and delivers them.
type Notifier interface {
	AddLine(line string)
	Send(ctx context.Context, useMailx bool) error
}

// RelayErrors sends the error log at path, line by line in file order, through n.
// A missing or empty log sends nothing. It reports whether a message was sent.
func RelayErrors(ctx context.Context, path string, n Notifier, useMailx bool, logger *log.Entry) (bool, error) {
	fi, err := os.Stat(path)
	switch {
	case err != nil && os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("unable to read error log %s: %w", path, err)
	case fi.Size() == 0:
		logger.Debugf("error log %s is empty, nothing to send", path)
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("unable to open error log %s: %w", path, err)
	}
	defer f.Close()

	lines, err := errorLogLines(f)
	if err != nil {
		return false, fmt.Errorf("error reading error log %s: %w", path, err)
	}
	// hand lines over only once the whole log is read, so a failed read leaves nothing behind
	for _, line := range lines {
		n.AddLine(line)
	}
	logger.Debugf("sending %d lines of error log", len(lines))
	if err := n.Send(ctx, useMailx); err != nil {
		return false, fmt.Errorf("failed to send error log: %w", err)
	}
	return true, nil
}

// errorLogLines returns every line of r without its line ending. Lines have no length limit.
func errorLogLines(r io.Reader) ([]string, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"))
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
