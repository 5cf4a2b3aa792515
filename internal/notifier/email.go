package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/models"
)

// EmailNotifier sends alerts over SMTP with optional plain auth.
type EmailNotifier struct {
	Config config.EmailConfig

	// sendMail overrides smtp.SendMail in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (e *EmailNotifier) Type() string { return "email" }

func (e *EmailNotifier) Validate() error {
	if e.Config.SMTPHost == "" || e.Config.SMTPPort == 0 {
		return errors.New("email: smtp_host and smtp_port are required")
	}
	if e.Config.FromAddress == "" {
		return errors.New("email: from_address is required")
	}
	return nil
}

func (e *EmailNotifier) Send(ctx context.Context, alert models.Alert) error {
	recipients := e.Config.ToAddresses
	if len(recipients) == 0 {
		recipients = []string{e.Config.FromAddress}
	}

	from, err := sanitizeHeader("from address", e.Config.FromAddress)
	if err != nil {
		return err
	}
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		safe, err := sanitizeHeader("recipient", r)
		if err != nil {
			return err
		}
		if safe == "" {
			return errors.New("email: recipient cannot be empty")
		}
		to = append(to, safe)
	}

	title, err := sanitizeHeader("title", alert.Title)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("[Beacon] %s - %s", strings.ToUpper(string(alert.Severity)), title)
	body := fmt.Sprintf(
		"Severity: %s\nSource: %s\nTime: %s\n\n%s",
		alert.Severity,
		alert.Source,
		alert.Timestamp.UTC().Format(time.RFC3339),
		alert.Message,
	)

	var msg strings.Builder
	msg.WriteString("From: ")
	msg.WriteString(from)
	msg.WriteString("\r\nTo: ")
	msg.WriteString(strings.Join(to, ","))
	msg.WriteString("\r\nSubject: ")
	msg.WriteString(subject)
	msg.WriteString("\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if e.Config.Username != "" && e.Config.Password != "" {
		auth = smtp.PlainAuth("", e.Config.Username, e.Config.Password, e.Config.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", e.Config.SMTPHost, e.Config.SMTPPort)
	send := e.sendMail
	if send == nil {
		send = smtp.SendMail
	}

	// smtp.SendMail has no cancellation hook, so the deadline is enforced
	// here: a send that outlives the context is abandoned to keep the
	// dispatch fan-out bounded.
	errCh := make(chan error, 1)
	go func() {
		errCh <- send(addr, auth, from, to, []byte(msg.String()))
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("email: send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sanitizeHeader rejects values that could break out of email headers.
func sanitizeHeader(fieldName, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if strings.ContainsAny(trimmed, "\r\n") {
		return "", fmt.Errorf("email: %s contains invalid newline characters", fieldName)
	}
	return trimmed, nil
}
