package mail

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"paperscribe/internal/domain"
	"paperscribe/internal/ports"
)

// Config holds the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer sends digest emails over SMTP with plain-text and HTML parts.
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
	logger *slog.Logger
}

var _ ports.DigestMailer = (*Mailer)(nil)

func NewMailer(cfg Config, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		logger: logger.With("component", "mailer"),
	}
}

// SendDigest mails the paper batch to one recipient. The send itself has no
// context hook in the SMTP dialer, so cancellation is checked up front.
func (m *Mailer) SendDigest(ctx context.Context, target string, papers []domain.Paper) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", target)
	msg.SetHeader("Subject", fmt.Sprintf("Paper digest: %d new papers", len(papers)))
	msg.SetBody("text/plain", plainBody(papers))
	msg.AddAlternative("text/html", htmlBody(papers))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send digest to %s: %w", target, err)
	}
	m.logger.Info("digest mailed", "target", target, "papers", len(papers))
	return nil
}

func plainBody(papers []domain.Paper) string {
	var b strings.Builder
	b.WriteString("Your paper digest\n\n")
	for i, p := range papers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Title)
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "   %s\n", strings.Join(p.Authors, ", "))
		}
		if p.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", p.Summary)
		}
		if p.URL != "" {
			fmt.Fprintf(&b, "   %s\n", p.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func htmlBody(papers []domain.Paper) string {
	var b strings.Builder
	b.WriteString("<html><body><h2>Your paper digest</h2>")
	for _, p := range papers {
		b.WriteString("<div style=\"margin-bottom:16px\">")
		if p.URL != "" {
			fmt.Fprintf(&b, "<a href=%q><b>%s</b></a>", p.URL, html.EscapeString(p.Title))
		} else {
			fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(p.Title))
		}
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "<br><i>%s</i>", html.EscapeString(strings.Join(p.Authors, ", ")))
		}
		if p.Summary != "" {
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(p.Summary))
		}
		b.WriteString("</div>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
