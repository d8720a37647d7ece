// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mail sends transactional email. Bodies are written in Markdown,
// rendered to HTML with goldmark, and sent as multipart/alternative with
// the Markdown source as the plain-text part.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/smtp"
	"net/textproto"
	"strings"
	"text/template"
	"time"

	"bloghub/internal/markdown"
)

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender returns a sender for the given relay.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg}
}

// Send dispatches msg. The context is checked before dialing; net/smtp
// itself does not take one.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := buildMIME(s.cfg.From, msg)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, msg.To, body); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes messages to the structured log instead of sending them.
// Used in development when no SMTP host is configured.
type LogSender struct {
	From string
}

// Send logs msg.
func (s LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("mail not sent (no SMTP configured)",
		"from", s.From,
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}

// buildMIME renders msg as an RFC 5322 message with text and HTML parts.
func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("MIME-Version", "1.0")
	header("Date", time.Now().Format(time.RFC1123Z))
	header("From", from)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		if part.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PasswordResetData fills the password reset email.
type PasswordResetData struct {
	Name string
	Link string
}

var passwordResetTpl = template.Must(template.New("password_reset").Parse(`Hello {{.Name}},

You can use the link below to reset your password:

{{.Link}}

If you did not ask for a password reset you can ignore this email.
`))

// PasswordReset builds the password reset message for one recipient.
func PasswordReset(to string, data PasswordResetData) (Message, error) {
	var src bytes.Buffer
	if err := passwordResetTpl.Execute(&src, data); err != nil {
		return Message{}, fmt.Errorf("render reset email: %w", err)
	}
	html, err := markdown.ToHTML(src.String())
	if err != nil {
		return Message{}, fmt.Errorf("render reset email html: %w", err)
	}
	return Message{
		To:      []string{to},
		Subject: "Reset your password",
		Text:    src.String(),
		HTML:    html,
	}, nil
}
