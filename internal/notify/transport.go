package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"feedback-portal/pkg/utils"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Transport delivers one rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// NewTransport builds the transport chain selected by config. Preview replaces
// SMTP delivery; file saving and logging wrap whichever base is chosen.
func NewTransport(config utils.EmailConfig, log *zap.Logger) Transport {
	var t Transport
	if config.Preview {
		t = NewPreviewTransport(log)
	} else {
		t = NewSMTPTransport(config)
	}
	if config.SaveToFile {
		t = NewFileTransport(config.OutputDir, t)
	}
	if config.Log {
		t = NewLogTransport(log, t)
	}
	return t
}

// ==================== SMTP ====================

type SMTPTransport struct {
	dialer      *gomail.Dialer
	fromAddress string
	fromName    string
}

func NewSMTPTransport(config utils.EmailConfig) *SMTPTransport {
	d := gomail.NewDialer(config.Host, config.Port, config.User, config.Password)
	d.SSL = config.Secure
	if config.Secure {
		d.TLSConfig = &tls.Config{ServerName: config.Host, MinVersion: tls.VersionTLS12}
	}
	return &SMTPTransport{
		dialer:      d,
		fromAddress: config.FromAddress,
		fromName:    config.FromName,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.fromAddress, t.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := t.dialer.DialAndSend(m); err != nil {
		return classifySMTPError(err)
	}
	return nil
}

// classifySMTPError treats 5xx replies (unknown mailbox, policy rejection) as permanent.
func classifySMTPError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 500 {
		return Permanent(err)
	}
	return err
}

// ==================== DEVELOPMENT ====================

// PreviewTransport never delivers; it logs what would have been sent.
type PreviewTransport struct {
	log *zap.Logger
}

func NewPreviewTransport(log *zap.Logger) *PreviewTransport {
	return &PreviewTransport{log: log.With(zap.String("transport", "preview"))}
}

func (t *PreviewTransport) Send(_ context.Context, msg Message) error {
	t.log.Info("Email preview",
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}

// FileTransport writes each message to dir as HTML, then hands it to next.
type FileTransport struct {
	dir  string
	next Transport
	now  func() time.Time
}

func NewFileTransport(dir string, next Transport) *FileTransport {
	return &FileTransport{dir: dir, next: next, now: time.Now}
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (t *FileTransport) Send(ctx context.Context, msg Message) error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("create email output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.html",
		t.now().UTC().Format("20060102T150405.000000000"),
		msg.Kind,
		unsafeFileChars.ReplaceAllString(msg.To, "_"),
	)
	if err := os.WriteFile(filepath.Join(t.dir, name), []byte(msg.HTML), 0o644); err != nil {
		return fmt.Errorf("write email file: %w", err)
	}

	if t.next == nil {
		return nil
	}
	return t.next.Send(ctx, msg)
}

// LogTransport logs message metadata, then hands it to next.
type LogTransport struct {
	log  *zap.Logger
	next Transport
}

func NewLogTransport(log *zap.Logger, next Transport) *LogTransport {
	return &LogTransport{log: log.With(zap.String("transport", "log")), next: next}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	t.log.Info("Sending email",
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	if t.next == nil {
		return nil
	}
	return t.next.Send(ctx, msg)
}
