package email

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// Message is one outgoing mail. At least one of Text and HTML is required;
// with both, HTML is sent as the alternative part.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

func compose(from string, m Message) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	to := addresses(m.To)
	subject := strings.TrimSpace(m.Subject)
	text, html := strings.TrimSpace(m.Text) != "", strings.TrimSpace(m.HTML) != ""

	switch {
	case from == "":
		return nil, fmt.Errorf("%w: no sender", ErrInvalidMessage)
	case len(to) == 0:
		return nil, fmt.Errorf("%w: no recipients", ErrInvalidMessage)
	case subject == "":
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidMessage)
	case !text && !html:
		return nil, fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", to...)
	gm.SetHeader("Subject", subject)
	if r := strings.TrimSpace(m.ReplyTo); r != "" {
		gm.SetHeader("Reply-To", r)
	}
	if text {
		gm.SetBody("text/plain", m.Text)
		if html {
			gm.AddAlternative("text/html", m.HTML)
		}
	} else {
		gm.SetBody("text/html", m.HTML)
	}
	return gm, nil
}

func addresses(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
