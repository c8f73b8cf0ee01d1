package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

var assignmentTemplate = template.Must(template.New("assignment").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New task assignment</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px;">You've been assigned a task</h2>
    <p>Hi {{.Recipient}},</p>
    <p>{{.ActorName}} assigned you to <strong>{{.TaskTitle}}</strong>.</p>
    <p><a href="{{.BaseURL}}{{.TaskURL}}" style="display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px;">Open task</a></p>
    <p style="margin-top: 30px; font-size: 12px; color: #7f8c8d;">You receive this because a teammate assigned you a task.</p>
</body>
</html>`))

// SMTPConfig configures the transactional mail channel.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	BaseURL   string
}

// SMTPMailer sends assignment emails over SMTP via gomail.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) Send(payload EmailPayload) error {
	var body bytes.Buffer
	data := struct {
		EmailPayload
		BaseURL string
	}{EmailPayload: payload, BaseURL: m.cfg.BaseURL}

	if err := assignmentTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render assignment email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromEmail, m.cfg.FromName)
	msg.SetHeader("To", payload.To)
	msg.SetHeader("Subject", fmt.Sprintf("New task: %s", payload.TaskTitle))
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to deliver assignment email: %w", err)
	}

	return nil
}
