package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Verify your email address</h2>
  <p>Hi {{.Username}}, thanks for signing up. Confirm your email by opening the link below.</p>
  <p><a href="{{.Link}}">{{.Link}}</a></p>
  <p>If you did not create an account you can ignore this message.</p>
</body>
</html>`))

// Notifier turns account events into queued mail.
type Notifier struct {
	dispatcher Dispatcher
	baseURL    string
}

func NewNotifier(dispatcher Dispatcher, baseURL string) *Notifier {
	return &Notifier{
		dispatcher: dispatcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SendVerification queues the verification link for the given address.
func (n *Notifier) SendVerification(_ context.Context, to, username, token string) error {
	body, err := n.renderVerification(username, token)
	if err != nil {
		return err
	}
	return n.dispatcher.Enqueue(Message{
		To:      to,
		Subject: "Verify your email address",
		Body:    body,
	})
}

func (n *Notifier) VerificationLink(token string) string {
	return fmt.Sprintf("%s/auth/verify-email?token=%s", n.baseURL, url.QueryEscape(token))
}

func (n *Notifier) renderVerification(username, token string) (string, error) {
	var buf bytes.Buffer
	err := verificationTemplate.Execute(&buf, struct {
		Username string
		Link     string
	}{
		Username: username,
		Link:     n.VerificationLink(token),
	})
	if err != nil {
		return "", fmt.Errorf("render verification mail: %w", err)
	}
	return buf.String(), nil
}
