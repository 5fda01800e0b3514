// Package mailer sends the daily summary through the Gmail API.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var headerSanitizer = strings.NewReplacer("\r", "", "\n", "")

// BuildMessage renders a plain-text RFC 2822 message. The subject is
// RFC 2047 encoded when it is not plain ASCII.
func BuildMessage(to, subject, body string) []byte {
	var b bytes.Buffer
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	header(config.MailHeaderTo, headerSanitizer.Replace(to))
	header(config.MailHeaderSubject, mime.BEncoding.Encode(config.MailCharset, subject))
	header(config.MailHeaderMIME, config.MailMIMEVersion)
	header(config.MailHeaderContentType, config.MailContentType)
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}

// EncodeRaw is the base64url form (no padding) expected by users.messages.send.
func EncodeRaw(msg []byte) string {
	return base64.RawURLEncoding.EncodeToString(msg)
}

// Gmail implements engine.Mailer as the authorized user ("me").
type Gmail struct {
	srv *gmail.Service
}

var _ engine.Mailer = (*Gmail)(nil)

func NewGmail(ctx context.Context, opts ...option.ClientOption) (*Gmail, error) {
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrGmailClient, err)
	}
	return &Gmail{srv: srv}, nil
}

func (g *Gmail) Send(ctx context.Context, recipient, subject, body string) error {
	msg := &gmail.Message{Raw: EncodeRaw(BuildMessage(recipient, subject, body))}

	sent, err := g.srv.Users.Messages.Send(config.GmailUserMe, msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrMailSend, err)
	}

	slog.Debug(config.MsgMailSent,
		config.LogKeyComponent, config.CompMailer,
		config.LogKeyKey, sent.Id)
	return nil
}
