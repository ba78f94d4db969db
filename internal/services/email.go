package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"

	"github.com/princeprakhar/biz-directory/internal/config"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Mailer is the part of gomail.Dialer the email service uses.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier sends the listing lifecycle emails.
type Notifier interface {
	ListingReceived(ctx context.Context, b *models.Business) error
	NewListingPending(ctx context.Context, b *models.Business) error
	ListingApproved(ctx context.Context, b *models.Business) error
}

type EmailService struct {
	config *config.Config
	mailer Mailer
	log    logrus.FieldLogger
}

// NewEmailService dials the configured SMTP server. With no SMTP_HOST the
// service is disabled and every send is a logged no-op.
func NewEmailService(cfg *config.Config, log logrus.FieldLogger) *EmailService {
	var mailer Mailer
	if cfg.SMTPHost != "" {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}
		mailer = d
	}
	return NewEmailServiceWithMailer(cfg, mailer, log)
}

func NewEmailServiceWithMailer(cfg *config.Config, mailer Mailer, log logrus.FieldLogger) *EmailService {
	return &EmailService{config: cfg, mailer: mailer, log: log}
}

func (s *EmailService) Enabled() bool {
	return s.mailer != nil
}

func (s *EmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	if !s.Enabled() {
		s.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Debug("email disabled, skipping send")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	return nil
}

// ListingReceived confirms a submission to the business's own address.
func (s *EmailService) ListingReceived(ctx context.Context, b *models.Business) error {
	if b.Email == "" {
		return nil
	}
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Thank you for listing your business on %s. Your submission is now waiting for review and you will hear from us once it has been approved.</p>`,
		html.EscapeString(b.Name), html.EscapeString(s.config.SiteName))
	return s.SendEmail(ctx, b.Email, "We received your listing", body)
}

// NewListingPending tells the administrator a listing is waiting for review.
func (s *EmailService) NewListingPending(ctx context.Context, b *models.Business) error {
	if s.config.AdminEmail == "" {
		return nil
	}
	body := fmt.Sprintf(`<p>A new listing is waiting for review.</p>
<ul>
<li>Name: %s</li>
<li>Category: %s</li>
<li>City: %s</li>
<li>Phone: %s</li>
<li>ID: %s</li>
</ul>`,
		html.EscapeString(b.Name),
		html.EscapeString(b.Category),
		html.EscapeString(b.City),
		html.EscapeString(b.Phone),
		html.EscapeString(b.ID))
	return s.SendEmail(ctx, s.config.AdminEmail, "New listing pending: "+b.Name, body)
}

// ListingApproved tells the business its listing is live.
func (s *EmailService) ListingApproved(ctx context.Context, b *models.Business) error {
	if b.Email == "" {
		return nil
	}
	link := BusinessURL(s.config.BaseURL, b.Slug)
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your listing has been approved and is now live: <a href="%s">%s</a></p>`,
		html.EscapeString(b.Name), html.EscapeString(link), html.EscapeString(link))
	return s.SendEmail(ctx, b.Email, "Your listing is live", body)
}

// BusinessURL is the public page of a listing.
func BusinessURL(baseURL, slug string) string {
	return baseURL + "/business/" + slug
}
