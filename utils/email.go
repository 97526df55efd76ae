// utils/email.go
package utils

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"storefront/models"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// PostmarkSender sends through the Postmark API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender returns a Postmark-backed Sender.
func NewPostmarkSender(serverToken, from string) *PostmarkSender {
	return &PostmarkSender{client: postmark.NewClient(serverToken, ""), from: from}
}

func (s *PostmarkSender) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	_, err := s.client.SendEmail(postmark.Email{
		From:     s.from,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	return nil
}

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	apiKey string
	from   string
}

// NewSendGridSender returns a SendGrid-backed Sender.
func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, from: from}
}

func (s *SendGridSender) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("Storefront", s.from),
		subject,
		mail.NewEmail("", to),
		textBody,
		htmlBody,
	)
	response, err := sendgrid.NewSendClient(s.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}
	return nil
}

// LogSender only logs outgoing mail. Used when no provider is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, _, _ string) error {
	slog.InfoContext(ctx, "email not sent, no provider configured", "to", to, "subject", subject)
	return nil
}

// EmailService renders and sends customer notifications.
type EmailService struct {
	sender Sender
}

// NewEmailService wraps sender.
func NewEmailService(sender Sender) *EmailService {
	if sender == nil {
		sender = LogSender{}
	}
	return &EmailService{sender: sender}
}

// SendWelcomeEmail greets a newly registered user.
func (es *EmailService) SendWelcomeEmail(ctx context.Context, user models.User) error {
	subject := "Welcome to the store"
	text := fmt.Sprintf("Dear %s,\n\nYour account has been created. Happy shopping!\n", user.Name)
	htmlContent := fmt.Sprintf("<strong>Dear %s,</strong><br><br>Your account has been created. Happy shopping!",
		html.EscapeString(user.Name))
	return es.sender.Send(ctx, user.Email, subject, htmlContent, text)
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(ctx context.Context, user models.User, order models.Order) error {
	subject := "Order Confirmation"
	text := fmt.Sprintf(
		"Dear %s,\n\nThank you for your purchase! Your order (ID: %s) has been placed.\n\nItems: %d\nTotal Amount: $%.2f\n",
		user.Name, order.ID.Hex(), len(order.Items), order.Total,
	)
	htmlContent := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been placed.<br><br>Items: %d<br>Total Amount: <strong>$%.2f</strong>",
		html.EscapeString(user.Name), order.ID.Hex(), len(order.Items), order.Total,
	)
	return es.sender.Send(ctx, user.Email, subject, htmlContent, text)
}

// SendOrderStatusEmail tells the user their order moved to a new status.
func (es *EmailService) SendOrderStatusEmail(ctx context.Context, user models.User, order models.Order) error {
	subject := "Order Status Updated"
	text := fmt.Sprintf("Dear %s,\n\nYour order (ID: %s) is now '%s'.\n", user.Name, order.ID.Hex(), order.Status)
	htmlContent := fmt.Sprintf("<strong>Dear %s,</strong><br><br>Your order (ID: %s) is now <strong>%s</strong>.",
		html.EscapeString(user.Name), order.ID.Hex(), order.Status)
	return es.sender.Send(ctx, user.Email, subject, htmlContent, text)
}
