package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

// Attachment is a file carried on a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	FromName    string
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages through the mail provider.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	// Verify checks that the provider is reachable and accepts the credentials.
	Verify(ctx context.Context) error
}

// SMTPConfig is the provider handle. It is passed in; nothing is read from the environment here.
type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	Timeout   time.Duration
	// InsecureSkipVerify is for local relays with self-signed certificates
	InsecureSkipVerify bool
}

// SMTPSender sends mail over SMTP with STARTTLS (587) or implicit TLS (465)
type SMTPSender struct {
	cfg SMTPConfig
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.Username // Gmail sends as the login address
	}
	return &SMTPSender{cfg: cfg}
}

// FromEmail is the envelope sender used when a message leaves From empty.
func (s *SMTPSender) FromEmail() string {
	return s.cfg.FromEmail
}

// IsConfigured checks if the sender has a host and a credential pair
func (s *SMTPSender) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != ""
}

// Send builds the MIME message and delivers it to every recipient in msg.To.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	if msg.From == "" {
		m := *msg
		m.From = s.cfg.FromEmail
		msg = &m
	}

	raw, err := BuildMIME(msg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	client, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return client.Quit()
}

// Verify dials, negotiates TLS, authenticates and quits.
func (s *SMTPSender) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	client, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	return client.Quit()
}

// open returns an authenticated client whose connection is closed when ctx ends.
func (s *SMTPSender) open(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	tlsConfig := &tls.Config{
		ServerName:         s.cfg.Host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	if s.cfg.Port == "465" {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		stop()
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}

	fail := func(format string, err error) (*smtp.Client, error) {
		stop()
		client.Close()
		return nil, fmt.Errorf(format, err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok && s.cfg.Port != "465" {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fail("smtp STARTTLS: %w", err)
		}
	}

	if s.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return fail("smtp AUTH: %w", err)
			}
		}
	}

	return client, nil
}
