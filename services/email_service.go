package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/nearnect/nearnect-api/models"
	"go.uber.org/zap"
)

const emailSendTimeout = 30 * time.Second

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #6c5ce7; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
      <h1>{{.Heading}}</h1>
    </div>
    <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px;">
      {{template "body" .}}
      <p>Best regards,<br>The NearNect Team</p>
    </div>
  </div>
</body>
</html>{{end}}`))

var (
	welcomeTmpl = mustEmailTemplate(`
<h2>Hello {{.Name}}!</h2>
<p>Thank you for joining NearNect. We're excited to have you on board!</p>
<p>You can now:</p>
<ul>
  <li>Search for local service providers</li>
  <li>Book services easily</li>
  <li>Chat with service providers</li>
  <li>Leave reviews and ratings</li>
</ul>
<a href="{{.FrontendURL}}">Get Started</a>`)

	bookingTmpl = mustEmailTemplate(`
<h2>Your booking has been confirmed</h2>
<p><strong>Service:</strong> {{.Booking.Service}}</p>
<p><strong>Date &amp; Time:</strong> {{.When}}</p>
<p><strong>Address:</strong> {{.Booking.Address}}</p>
<p><strong>Amount:</strong> ₹{{.Amount}}</p>
<p>Your service provider will contact you soon. You can track your booking in your dashboard.</p>`)

	paymentTmpl = mustEmailTemplate(`
<h2>Your payment has been processed</h2>
<p><strong>Amount:</strong> ₹{{.Amount}}</p>
<p><strong>Transaction ID:</strong> {{.TransactionID}}</p>
<p><strong>Date:</strong> {{.When}}</p>
<p>Thank you for your payment. Your booking is now confirmed!</p>`)

	messageTmpl = mustEmailTemplate(`
<h2>You have a new message from {{.SenderName}}</h2>
<p style="background: white; padding: 15px; border-left: 4px solid #6c5ce7;">"{{.Preview}}"</p>
<a href="{{.FrontendURL}}/chat.html">View Message</a>`)
)

func mustEmailTemplate(body string) *template.Template {
	t := template.Must(emailTemplates.Clone())
	return template.Must(t.New("body").Parse(body))
}

// EmailService renders the transactional templates and sends them in the background
type EmailService struct {
	mailer      Mailer
	frontendURL string
	wg          sync.WaitGroup
}

var emailServiceInstance *EmailService

func NewEmailService(mailer Mailer, frontendURL string) *EmailService {
	return &EmailService{mailer: mailer, frontendURL: frontendURL}
}

// GetEmailService returns the global email service
func GetEmailService() *EmailService {
	return emailServiceInstance
}

// SetEmailService sets the global email service
func SetEmailService(s *EmailService) {
	emailServiceInstance = s
}

// Wait blocks until every queued email has been attempted
func (s *EmailService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

func (s *EmailService) SendWelcome(to, name string) {
	if s == nil {
		return
	}
	s.send(to, "Welcome to NearNect!", welcomeTmpl, map[string]any{
		"Heading":     "Welcome to NearNect!",
		"Name":        name,
		"FrontendURL": s.frontendURL,
	})
}

func (s *EmailService) SendBookingConfirmation(to string, booking *models.Booking) {
	if s == nil {
		return
	}
	s.send(to, fmt.Sprintf("Booking Confirmed - %s", booking.Service), bookingTmpl, map[string]any{
		"Heading": "Booking Confirmed!",
		"Booking": booking,
		"When":    booking.ScheduledFor.Format("02 Jan 2006, 03:04 PM"),
		"Amount":  fmt.Sprintf("%.2f", booking.Amount),
	})
}

func (s *EmailService) SendPaymentConfirmation(to string, payment *models.Payment) {
	if s == nil {
		return
	}
	txn := payment.GatewayTransactionID
	if txn == "" {
		txn = "N/A"
	}
	paidAt := time.Now()
	if payment.PaidAt != nil {
		paidAt = *payment.PaidAt
	}
	s.send(to, "Payment Successful - NearNect", paymentTmpl, map[string]any{
		"Heading":       "Payment Successful!",
		"Amount":        fmt.Sprintf("%.2f", payment.Amount),
		"TransactionID": txn,
		"When":          paidAt.Format("02 Jan 2006, 03:04 PM"),
	})
}

func (s *EmailService) SendNewMessage(to, senderName, preview string) {
	if s == nil {
		return
	}
	s.send(to, fmt.Sprintf("New message from %s", senderName), messageTmpl, map[string]any{
		"Heading":     "New Message",
		"SenderName":  senderName,
		"Preview":     preview,
		"FrontendURL": s.frontendURL,
	})
}

func (s *EmailService) send(to, subject string, tmpl *template.Template, data map[string]any) {
	if to == "" {
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		zap.L().Error("Failed to render email", zap.String("subject", subject), zap.Error(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()

		if err := s.mailer.Send(ctx, Email{To: to, Subject: subject, HTML: buf.String()}); err != nil {
			zap.L().Warn("Email send failed", zap.String("to", to), zap.Error(err))
		}
	}()
}
