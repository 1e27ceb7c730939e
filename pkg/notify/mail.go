// Package notify delivers the dump error log by mail, through the local
// sendmail binary or, alternatively, mailx.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

const (
	DefaultSendmailPath = "/usr/sbin/sendmail"
	DefaultMailxPath    = "mailx"

	subjectTimeFormat = "20060102_150405"
)

// Mail accumulates message lines and sends them to To. It is not safe for concurrent use.
type Mail struct {
	To      []string
	Subject string
	From    string
	// Server names the database server in the default subject.
	Server       string
	SendmailPath string
	MailxPath    string

	lines []string
}

// DefaultSubject is the subject used when none is configured.
func DefaultSubject(server string, now time.Time) string {
	return fmt.Sprintf("%s: mysql_db_dump: %s", server, now.Format(subjectTimeFormat))
}

// AddLine appends one line to the message body.
func (m *Mail) AddLine(line string) {
	m.lines = append(m.lines, strings.TrimRight(line, "\r\n"))
}

// Body returns the message body built so far.
func (m *Mail) Body() string {
	if len(m.lines) == 0 {
		return ""
	}
	return strings.Join(m.lines, "\n") + "\n"
}

func (m *Mail) subject() string {
	if m.Subject != "" {
		return m.Subject
	}
	return DefaultSubject(m.Server, time.Now())
}

// Send delivers the message through sendmail, or through mailx if useMailx is set.
// The body is cleared afterwards, whether or not delivery succeeded.
func (m *Mail) Send(ctx context.Context, useMailx bool) error {
	if len(m.To) == 0 {
		return fmt.Errorf("no mail recipients")
	}
	defer func() { m.lines = nil }()
	if useMailx {
		return m.sendMailx(ctx)
	}
	return m.sendSendmail(ctx)
}

// Message builds the RFC 5322 message handed to sendmail.
func (m *Mail) Message() (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("invalid mail recipient: %w", err)
	}
	if m.From != "" {
		if err := msg.From(m.From); err != nil {
			return nil, fmt.Errorf("invalid mail sender: %w", err)
		}
	}
	msg.Subject(m.subject())
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, m.Body())
	return msg, nil
}

func (m *Mail) sendSendmail(ctx context.Context) error {
	msg, err := m.Message()
	if err != nil {
		return err
	}
	path := m.SendmailPath
	if path == "" {
		path = DefaultSendmailPath
	}
	if err := msg.WriteToSendmailWithContext(ctx, path); err != nil {
		return fmt.Errorf("error running %s: %w", path, err)
	}
	return nil
}

func (m *Mail) sendMailx(ctx context.Context) error {
	path := m.MailxPath
	if path == "" {
		path = DefaultMailxPath
	}
	args := []string{"-s", m.subject()}
	if m.From != "" {
		args = append(args, "-r", m.From)
	}
	args = append(args, m.To...)
	return run(exec.CommandContext(ctx, path, args...), strings.NewReader(m.Body()))
}

func run(cmd *exec.Cmd, stdin io.Reader) error {
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error running %s: %w: %s", cmd.Path, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
