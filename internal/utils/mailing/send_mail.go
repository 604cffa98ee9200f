package mailing

import (
	"errors"
	"fmt"
	"strconv"

	"GreenOrigin-Backend/internal/utils"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/gomail.v2"
)

var ErrMailNotConfigured = errors.New("smtp is not configured")

type MailConfig struct {
	AppURL       string
	SMTPHost     string
	SMTPPort     string
	SMTPSender   string
	SMTPEmail    string
	SMTPPassword string
	AlertEmail   string
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		AppURL:       utils.GetConfig("APP_URL"),
		SMTPHost:     utils.GetConfig("SMTP_HOST"),
		SMTPPort:     utils.GetConfig("SMTP_PORT"),
		SMTPSender:   utils.GetConfig("SMTP_SENDER_NAME"),
		SMTPEmail:    utils.GetConfig("SMTP_AUTH_EMAIL"),
		SMTPPassword: utils.GetConfig("SMTP_AUTH_PASSWORD"),
		AlertEmail:   utils.GetConfig("ALERT_EMAIL"),
	}
}

func SendMail(toEmail string, subject string, body string) error {
	emailConfig := LoadMailConfig()
	if emailConfig.SMTPHost == "" {
		return ErrMailNotConfigured
	}

	mailer := gomail.NewMessage()
	mailer.SetAddressHeader("From", emailConfig.SMTPEmail, emailConfig.SMTPSender)
	mailer.SetHeader("To", toEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)
	port, err := strconv.Atoi(emailConfig.SMTPPort)
	if err != nil {
		return err
	}
	dialer := gomail.NewDialer(
		emailConfig.SMTPHost,
		port,
		emailConfig.SMTPEmail,
		emailConfig.SMTPPassword,
	)

	return dialer.DialAndSend(mailer)
}

// Alerter reports ledger writes that failed after the database write
// already committed.
type Alerter interface {
	LedgerDivergence(productID, operation string, cause error)
}

type mailAlerter struct {
	to string
}

// NewAlerter returns nil when ALERT_EMAIL is unset.
func NewAlerter() Alerter {
	to := utils.GetConfig("ALERT_EMAIL")
	if to == "" {
		return nil
	}
	return &mailAlerter{to: to}
}

func (m *mailAlerter) LedgerDivergence(productID, operation string, cause error) {
	subject := fmt.Sprintf("[GreenOrigin] ledger %s failed for %s", operation, productID)
	body := fmt.Sprintf(
		"<p>Product <b>%s</b> was saved to the database but the ledger call <code>%s</code> failed.</p><pre>%v</pre>",
		productID, operation, cause,
	)
	go func() {
		if err := SendMail(m.to, subject, body); err != nil {
			log.Warnf("failed to send ledger alert for %s: %v", productID, err)
		}
	}()
}
