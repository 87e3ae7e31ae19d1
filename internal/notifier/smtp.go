package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds plain SMTP relay settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SMTPSender delivers notifications through a plain SMTP relay.
type SMTPSender struct {
	cfg Config
}

// NewSMTPSender validates the configuration and returns an SMTP sender.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.SMTP.Host == "" || cfg.SMTP.Port == 0 || cfg.From == "" {
		return nil, errors.New("smtp: host, port and from are required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) SendCompletion(_ context.Context, recipients []string, summary JobSummary, downloadURL string) error {
	return s.send(recipients, completionSubject(s.cfg), completionBody(s.cfg, summary, downloadURL))
}

func (s *SMTPSender) SendFailure(_ context.Context, recipient, errorMessage string) error {
	return s.send([]string{recipient}, failureSubject(s.cfg), failureBody(s.cfg, errorMessage))
}

func (s *SMTPSender) send(recipients []string, subject, body string) error {
	var auth smtp.Auth
	if s.cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTP.Username, s.cfg.SMTP.Password, s.cfg.SMTP.Host)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.From,
		strings.Join(recipients, ", "),
		subject,
		body,
	))

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTP.Host, s.cfg.SMTP.Port)
	return smtp.SendMail(addr, auth, s.cfg.From, recipients, msg)
}
