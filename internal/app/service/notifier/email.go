package notifier

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/lin4lins/WeatherInBox-API/internal/models"
	cfgpkg "github.com/lin4lins/WeatherInBox-API/pkg/config"
)

// EmailSender delivers a rendered weather update to one recipient.
type EmailSender interface {
	Send(recipient, subject, body string) error
}

// SMTPSender sends plain-text mail through the configured SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg *cfgpkg.Config) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.Username, cfg.Email.Password),
		from:   cfg.Email.From,
	}
}

func (s *SMTPSender) Send(recipient, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func emailSubject(city *models.City) string {
	return fmt.Sprintf("Weather update: %s, %s", city.Name, city.CountryName)
}

func renderEmail(snap *models.WeatherSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current weather in %s, %s:\n\n", snap.City.Name, snap.City.CountryName)
	fmt.Fprintf(&b, "Condition:   %s (%s)\n", snap.Status, snap.StatusDescription)
	fmt.Fprintf(&b, "Temperature: %.1f C (feels like %.1f C)\n", snap.Temperature, snap.FeelsLike)
	fmt.Fprintf(&b, "Wind:        %.1f m/s\n", snap.WindSpeed)
	if snap.Rain1h != nil {
		fmt.Fprintf(&b, "Rain (1h):   %.1f mm\n", *snap.Rain1h)
	}
	if snap.Snow1h != nil {
		fmt.Fprintf(&b, "Snow (1h):   %.1f mm\n", *snap.Snow1h)
	}
	fmt.Fprintf(&b, "Pressure:    %d hPa\n", snap.Pressure)
	fmt.Fprintf(&b, "Humidity:    %d%%\n", snap.Humidity)
	fmt.Fprintf(&b, "Visibility:  %d m\n", snap.Visibility)
	fmt.Fprintf(&b, "Cloudiness:  %d%%\n", snap.Cloudiness)
	fmt.Fprintf(&b, "\nMeasured at %s\n", snap.CreatedAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}
