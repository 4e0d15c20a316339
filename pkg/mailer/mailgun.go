package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

// Mailgun delivers rendered emails through the Mailgun API.
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
}

// NewMailgun builds a client for domain. eu selects the EU API region.
func NewMailgun(domain, apiKey, sender string, eu bool) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if eu {
		client.SetAPIBase(mg.APIBaseEU)
	}
	return &Mailgun{client: client, sender: sender}
}

// Send sends an email. html is optional; when set it is used as the HTML body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	_, id, err := m.client.Send(c, msg)
	return id, err
}
