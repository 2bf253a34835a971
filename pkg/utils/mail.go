package utils

import (
	"context"
	"fmt"

	"github.com/safeguardhq/trustguard/pkg/logger"
	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP and app settings, passed in from app config.
type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	AppURL       string
	FromEmail    string
}

// SendFlagAlertEmail notifies a moderator about a newly submitted flag.
// Failures are the caller's to log; flag submission never depends on this.
func SendFlagAlertEmail(ctx context.Context, config EmailConfig, email, username, kind, reason, flagID string, log *logger.Logger) error {
	if !config.Enabled {
		return nil
	}

	reviewLink := fmt.Sprintf("%s/moderation/flags/%s", config.AppURL, flagID)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>New flagged %s</h2>
    <p>Hi %s,</p>
    <p>A user has flagged a %s for review. Reason given:</p>
    <blockquote style="border-left: 3px solid #d93025; padding-left: 12px; color: #555;">%s</blockquote>
    <p><a href="%s" style="color: #1a73e8; font-weight: bold;">Review it in the moderation queue</a></p>
    <p style="color: #888; font-size: 12px;">TrustGuard moderation</p>
</body>
</html>`, kind, username, kind, reason, reviewLink)

	m := gomail.NewMessage()
	m.SetHeader("From", config.FromEmail)
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("New flagged %s awaiting review", kind))
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUsername, config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		log.Warn(ctx).WithFields("error", err, "moderator", username).Logs("Failed to send flag alert email")
		return WrapError(err, ErrInternalServerError.Code, "Failed to send flag alert email")
	}

	log.Info(ctx).WithFields("moderator", username).Logs("Flag alert email sent")
	return nil
}
