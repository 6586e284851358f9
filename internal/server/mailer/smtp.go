package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/logging"
)

// SMTPConfig holds the transport settings. With Disabled set, messages are
// logged instead of sent; useful for local development without a relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
	Disabled bool
}

// SMTPMailer sends mail over SMTP with STARTTLS (or implicit TLS on 465).
type SMTPMailer struct {
	cfg    SMTPConfig
	logger logging.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger logging.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger.With("module", "mailer")}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.cfg.Disabled {
		m.logger.Info(ctx, "smtp disabled, not sending", "to", to, "subject", subject)
		return nil
	}
	if m.cfg.Host == "" || m.cfg.User == "" || m.cfg.Pass == "" {
		return fmt.Errorf("%w: smtp not configured", common.ErrDependency)
	}

	fromAddr := m.cfg.From
	if fromAddr == "" {
		fromAddr = m.cfg.User
	}
	fromHeader := fromAddr
	if m.cfg.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", m.cfg.FromName, fromAddr)
	}

	msg := buildMessage(fromHeader, to, subject, htmlBody)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)

	var err error
	if m.cfg.Port == 465 {
		err = m.sendImplicitTLS(addr, auth, fromAddr, to, msg)
	} else {
		err = m.sendStartTLS(addr, auth, fromAddr, to, msg)
	}
	if err != nil {
		return fmt.Errorf("%w: smtp send: %v", common.ErrDependency, err)
	}
	return nil
}

func (m *SMTPMailer) sendStartTLS(addr string, auth smtp.Auth, from, to, msg string) error {
	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}
	return transmit(c, auth, from, to, msg)
}

func (m *SMTPMailer) sendImplicitTLS(addr string, auth smtp.Auth, from, to, msg string) error {
	host := strings.Split(addr, ":")[0]
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	return transmit(c, auth, from, to, msg)
}

func transmit(c *smtp.Client, auth smtp.Auth, from, to, msg string) error {
	if err := c.Auth(auth); err != nil {
		return err
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(fromHeader, to, subject, htmlBody string) string {
	var b strings.Builder
	b.WriteString("From: " + fromHeader + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return b.String()
}
