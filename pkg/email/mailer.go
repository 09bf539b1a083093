// Package email sends parent alerts over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/educare/track_backend/config"
)

const (
	defaultSMTPPort    = 587
	defaultSMTPTimeout = 30 * time.Second
)

type Client struct {
	enabled bool
	from    string
	dialer  *gomail.Dialer
	timeout time.Duration
}

// New builds a client from email.* config. A disabled client is valid and
// refuses every Send with ErrDisabled.
func New(c config.EmailConfig) *Client {
	port := c.SMTP.Port
	if port == 0 {
		port = defaultSMTPPort
	}
	timeout := defaultSMTPTimeout
	if c.SMTP.TimeoutSeconds > 0 {
		timeout = time.Duration(c.SMTP.TimeoutSeconds) * time.Second
	}

	d := gomail.NewDialer(c.SMTP.Host, port, c.SMTP.Username, c.SMTP.Password)
	if c.SMTP.UseTLS {
		d.SSL = true
		d.TLSConfig = &tls.Config{ServerName: c.SMTP.Host}
	}
	return &Client{enabled: c.Enabled, from: c.From, dialer: d, timeout: timeout}
}

func (c *Client) IsEnabled() bool { return c.enabled }

// Send delivers m, giving up at the sooner of ctx's deadline and the SMTP
// timeout. gomail has no context support, so an abandoned dial finishes in
// the background.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.enabled {
		return ErrDisabled
	}
	gm, err := compose(c.from, m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.dialer.DialAndSend(gm) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSMTP, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
