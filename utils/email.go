package utils

import (
	"context"
	"fmt"
	"html"
	"strings"

	"travlr/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	ProviderPostmark = "postmark"
	ProviderSendgrid = "sendgrid"
)

// EmailMessage is one rendered outgoing email
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

type mailer interface {
	send(ctx context.Context, from string, msg EmailMessage) error
}

// EmailService handles sending emails through Postmark or SendGrid
type EmailService struct {
	sender string
	mailer mailer
}

// NewEmailService initializes an EmailService for provider. baseURL overrides
// the Postmark API endpoint when set.
func NewEmailService(provider, apiToken, sender, baseURL string) (*EmailService, error) {
	if apiToken == "" {
		return nil, fmt.Errorf("email api token is not set")
	}

	var m mailer
	switch strings.ToLower(provider) {
	case ProviderPostmark:
		client := postmark.NewClient(apiToken, "")
		if baseURL != "" {
			client.BaseURL = strings.TrimRight(baseURL, "/")
		}
		m = postmarkMailer{client: client}
	case ProviderSendgrid:
		m = sendgridMailer{client: sendgrid.NewSendClient(apiToken)}
	default:
		return nil, fmt.Errorf("unknown email provider %q", provider)
	}

	return &EmailService{sender: sender, mailer: m}, nil
}

// Send delivers msg from the configured sender
func (es *EmailService) Send(ctx context.Context, msg EmailMessage) error {
	if err := es.mailer.send(ctx, es.sender, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type postmarkMailer struct {
	client *postmark.Client
}

func (m postmarkMailer) send(ctx context.Context, from string, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.client.SendEmail(postmark.Email{
		From:     from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.HTML,
	})
	return err
}

type sendgridMailer struct {
	client *sendgrid.Client
}

func (m sendgridMailer) send(ctx context.Context, from string, msg EmailMessage) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("Travlr Getaways", from),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.HTML,
		msg.HTML,
	)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// WelcomeEmail is sent after registration
func WelcomeEmail(name, email string) EmailMessage {
	return EmailMessage{
		To:      email,
		Subject: "Welcome to Travlr Getaways",
		HTML: fmt.Sprintf(
			"<strong>Hi %s,</strong><br><br>Your Travlr Getaways account is ready. Start planning your next trip!",
			html.EscapeString(name),
		),
	}
}

// CheckoutEmail confirms the bookings created by a checkout
func CheckoutEmail(name, email string, bookings []models.Booking) EmailMessage {
	var rows strings.Builder
	total := 0.0
	for _, b := range bookings {
		fmt.Fprintf(&rows, "<li>%s (%s), %d traveler(s) on %s: <strong>$%.2f</strong></li>",
			html.EscapeString(b.TripName), html.EscapeString(b.TripCode), b.Travelers, b.TravelDate.Format("2006-01-02"), b.TotalPrice)
		total += b.TotalPrice
	}
	return EmailMessage{
		To:      email,
		Subject: "Booking Confirmation",
		HTML: fmt.Sprintf(
			"<strong>Dear %s,</strong><br><br>Thank you for booking with us! Your reservations are pending confirmation:<ul>%s</ul>Total: <strong>$%.2f</strong>",
			html.EscapeString(name), rows.String(), total,
		),
	}
}

// StatusChangeEmail tells the owner a booking changed status
func StatusChangeEmail(b models.Booking) EmailMessage {
	return EmailMessage{
		To:      b.UserEmail,
		Subject: fmt.Sprintf("Your booking is now %s", b.Status),
		HTML: fmt.Sprintf(
			"<strong>Dear %s,</strong><br><br>Your booking for %s (ID: %s) is now <strong>%s</strong>.",
			html.EscapeString(b.UserName), html.EscapeString(b.TripName), b.ID.Hex(), html.EscapeString(b.Status),
		),
	}
}
