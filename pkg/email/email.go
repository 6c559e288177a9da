package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	ShopName     string
	ShopPhone    string
}

// ServiceReady is the data shown in the "device ready for pickup" mail.
type ServiceReady struct {
	CustomerName string
	ServiceCode  string
	DeviceModel  string
	Total        string
	Outstanding  string
}

// LowStockLine is one row of the morning low-stock digest.
type LowStockLine struct {
	Code      string
	Name      string
	Available int
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	tmpl   *template.Template
	digest *template.Template
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{
		config: config,
		tmpl:   template.Must(template.New("service_ready").Parse(serviceReadyTemplate)),
		digest: template.Must(template.New("low_stock").Parse(lowStockTemplate)),
	}
}

// SendServiceReady tells the customer their repair is complete.
func (s *EmailService) SendServiceReady(ctx context.Context, toEmail string, data ServiceReady) error {
	htmlContent, err := s.render(data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Your %s is ready for pickup (%s)", data.DeviceModel, data.ServiceCode)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)

	return s.sendEmail(ctx, toEmail, message)
}

// SendLowStockDigest lists the items that need reordering.
func (s *EmailService) SendLowStockDigest(ctx context.Context, toEmail string, threshold int, items []LowStockLine) error {
	view := struct {
		ShopName  string
		Threshold int
		Items     []LowStockLine
	}{s.config.ShopName, threshold, items}

	var buf bytes.Buffer
	if err := s.digest.Execute(&buf, view); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("%d stock items at or below %d", len(items), threshold)
	return s.sendEmail(ctx, toEmail, s.buildHTMLEmail(toEmail, subject, buf.String()))
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(ctx context.Context, to string, message []byte) error {
	addr := net.JoinHostPort(s.config.SMTPHost, strconv.Itoa(s.config.SMTPPort))
	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send email: %w", ctx.Err())
	}
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

func (s *EmailService) render(data ServiceReady) (string, error) {
	view := struct {
		ServiceReady
		ShopName  string
		ShopPhone string
	}{
		ServiceReady: data,
		ShopName:     s.config.ShopName,
		ShopPhone:    s.config.ShopPhone,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const serviceReadyTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Your device is ready</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 12px;">
        <tr>
            <td style="background-color: #1a1a2e; padding: 30px; text-align: center;">
                <h1 style="color: #ffffff; margin: 0; font-size: 24px;">{{.ShopName}}</h1>
            </td>
        </tr>
        <tr>
            <td style="padding: 30px; color: #4a5568; font-size: 16px; line-height: 1.6;">
                <p>Hello {{.CustomerName}},</p>
                <p>Your <strong>{{.DeviceModel}}</strong> has been repaired and is ready for pickup.</p>
                <p>Service code: <strong>{{.ServiceCode}}</strong><br>
                   Total: <strong>{{.Total}}</strong>{{if .Outstanding}}<br>
                   Still to pay: <strong>{{.Outstanding}}</strong>{{end}}</p>
                <p>Please bring your service code when you come by.{{if .ShopPhone}} Questions? Call us on {{.ShopPhone}}.{{end}}</p>
            </td>
        </tr>
    </table>
</body>
</html>
`

const lowStockTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Low stock</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 12px;">
        <tr>
            <td style="padding: 30px; color: #4a5568; font-size: 16px;">
                <h2 style="margin-top: 0;">{{.ShopName}}: low stock</h2>
                <p>These items have {{.Threshold}} or fewer units on the shelf.</p>
                <table style="width: 100%; border-collapse: collapse;">
                    <tr><th align="left">Code</th><th align="left">Name</th><th align="right">Available</th></tr>
                    {{range .Items}}<tr><td>{{.Code}}</td><td>{{.Name}}</td><td align="right">{{.Available}}</td></tr>
                    {{end}}
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`
