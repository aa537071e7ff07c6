package gomailer

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridMailer struct {
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	FromName string        `yaml:"from_name"`
	FromMail string        `yaml:"from_mail"`
	Timeout  time.Duration `yaml:"timeout"`
}

func (s *SendGridMailer) endpoint() string {
	if s.BaseURL != "" {
		return s.BaseURL + "/v3/mail/send"
	}
	return "https://api.sendgrid.com/v3/mail/send"
}

func (s *SendGridMailer) Send(email Email) error {
	from := mail.NewEmail(s.FromName, email.From)

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = email.Subject

	p := mail.NewPersonalization()
	for _, to := range email.To {
		p.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(p)

	if email.Text != "" {
		message.AddContent(mail.NewContent("text/plain", email.Text))
	}
	if email.HTML != "" {
		message.AddContent(mail.NewContent("text/html", email.HTML))
	}

	body := mail.GetRequestBody(message)
	req, err := http.NewRequest(http.MethodPost, s.endpoint(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range email.Headers {
		req.Header.Set(k, v)
	}

	timeout := s.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid API error: %d", resp.StatusCode)
	}
	return nil
}
