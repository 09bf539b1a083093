package sms

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/arsmn/go-smsir/smsir"

	"github.com/educare/track_backend/config"
)

var (
	ErrNoAPIKey = errors.New("sms: api key is required when sms is enabled")
	// ErrNoTemplate means the notification verb has no sms.ir template.
	ErrNoTemplate = errors.New("sms: no template configured for verb")
	ErrBadMessage = errors.New("sms: invalid message")
)

// Client texts parent alerts through sms.ir ultra-fast templates. A client
// built from a disabled config accepts every call and sends nothing.
type Client struct {
	api       *smsir.Client
	templates map[string]string
}

func New(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{}, nil
	}
	if strings.TrimSpace(cfg.SMSIR.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	templates := make(map[string]string, len(cfg.SMSIR.Templates))
	for verb, id := range cfg.SMSIR.Templates {
		if id = strings.TrimSpace(id); id != "" {
			templates[verb] = id
		}
	}
	return &Client{
		api:       smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey),
		templates: templates,
	}, nil
}

func (c *Client) IsEnabled() bool { return c.api != nil }

// HasTemplate reports whether alerts for verb would be texted.
func (c *Client) HasTemplate(verb string) bool {
	_, ok := c.templates[verb]
	return c.IsEnabled() && ok
}

// SendAlert texts phone the template registered for verb.
func (c *Client) SendAlert(ctx context.Context, phone, verb string, params map[string]string) error {
	if !c.IsEnabled() {
		return nil
	}
	id, ok := c.templates[verb]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTemplate, verb)
	}
	req, err := ultraFast(phone, id, params)
	if err != nil {
		return err
	}
	if _, err := c.api.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms: send %s: %w", verb, err)
	}
	return nil
}

// ultraFast builds the request with parameters in key order so template
// placeholders line up the same way on every send.
func ultraFast(phone, templateID string, params map[string]string) (*smsir.UltraFastSendRequest, error) {
	switch {
	case phone == "":
		return nil, fmt.Errorf("%w: empty phone number", ErrBadMessage)
	case templateID == "":
		return nil, fmt.Errorf("%w: empty template id", ErrBadMessage)
	case len(params) == 0:
		return nil, fmt.Errorf("%w: no template parameters", ErrBadMessage)
	}
	req := &smsir.UltraFastSendRequest{Mobile: phone, TemplateID: templateID}
	for _, k := range slices.Sorted(maps.Keys(params)) {
		req.Parameters = append(req.Parameters, smsir.UltraFastParameter{Key: k, Value: params[k]})
	}
	return req, nil
}
