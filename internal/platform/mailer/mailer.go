// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

/*
Package mailer is the outbound notification sink.

Email delivery is strictly best-effort: verification and reset mails improve
the user experience but must never fail a request. [Sender.SendEmail] therefore
reports success as a boolean and never returns an error — failures are logged
by the implementation and swallowed.
*/
package mailer

import (
	"context"
	"log/slog"
	"net/smtp"
	"strings"
)

// Email is a plain-text outbound message.
type Email struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers notification emails.
type Sender interface {
	/*
		SendEmail delivers a single message.

		Parameters:
		  - context: context.Context
		  - email: Email

		Returns:
		  - bool: true when the message was handed off to the transport
	*/
	SendEmail(context context.Context, email Email) bool
}

// # SMTP Implementation

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	addr   string // host:port of the relay
	from   string
	auth   smtp.Auth
	logger *slog.Logger
}

// NewSMTPSender creates a relay-backed [Sender].
//
// Username/password may be empty for unauthenticated local relays.
func NewSMTPSender(addr, from, username, password string, logger *slog.Logger) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{addr: addr, from: from, auth: auth, logger: logger}
}

// SendEmail implements [Sender]. Delivery failures are logged, never raised.
func (sender *SMTPSender) SendEmail(context context.Context, email Email) bool {
	var body strings.Builder
	body.WriteString("From: " + sender.from + "\r\n")
	body.WriteString("To: " + email.To + "\r\n")
	body.WriteString("Subject: " + email.Subject + "\r\n")
	body.WriteString("\r\n")
	body.WriteString(email.Text)

	if err := smtp.SendMail(sender.addr, sender.auth, sender.from, []string{email.To}, []byte(body.String())); err != nil {
		sender.logger.ErrorContext(context, "mail_delivery_failed",
			slog.String("to", email.To),
			slog.String("subject", email.Subject),
			slog.Any("error", err),
		)
		return false
	}

	sender.logger.InfoContext(context, "mail_delivered",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
	)
	return true
}

// # Development Implementation

// LogSender writes outbound mail to the log instead of delivering it.
// Used in development when no SMTP relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only [Sender].
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendEmail implements [Sender] by logging the message body.
func (sender *LogSender) SendEmail(context context.Context, email Email) bool {
	sender.logger.InfoContext(context, "mail_logged",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("text", email.Text),
	)
	return true
}
