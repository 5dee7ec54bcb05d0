package utils

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/SamMuaks2/projectsandtasks-backend/logging"
)

// IsEmailConfigured reports whether the SMTP settings are complete.
func IsEmailConfigured() bool {
	return os.Getenv("SMTP_HOST") != "" && os.Getenv("SMTP_USER") != "" && os.Getenv("SMTP_PASS") != ""
}

// SendEmail sends an HTML email over SMTP.
func SendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	if smtpPort == "" {
		smtpPort = "587"
	}
	user := os.Getenv("SMTP_USER")
	password := os.Getenv("SMTP_PASS")

	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = user
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", user, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, []string{to}, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// SendNotificationEmail renders the notification template and sends it.
// When SMTP is not configured the send is skipped with a log line.
func SendNotificationEmail(to, title, message string) error {
	if !IsEmailConfigured() {
		logging.Logger.Infof("Event ID: EMAIL_NOT_CONFIGURED, Description: Email not configured, skipping send to %s, subject %q", to, title)
		return nil
	}

	companyName := os.Getenv("COMPANY_NAME")
	if companyName == "" {
		companyName = "GIC Projects"
	}
	appURL := os.Getenv("CLIENT_URL")
	if appURL == "" {
		appURL = "https://gicprojects.com.ng"
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; }
    .container { max-width: 600px; margin: 0 auto; padding: 0; }
    .header { background-color: #3498db; color: white; padding: 30px 20px; text-align: center; }
    .content { padding: 30px 20px; background-color: #f9f9f9; }
    .message { margin: 20px 0; padding: 20px; background-color: white; border-left: 4px solid #3498db; border-radius: 4px; }
    .button { display: inline-block; padding: 12px 30px; background-color: #3498db; color: white !important; text-decoration: none; border-radius: 5px; margin-top: 20px; font-weight: bold; }
    .footer { text-align: center; padding: 20px; color: #777; font-size: 12px; background-color: #f0f0f0; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">
      <h2>%s</h2>
      <div class="message"><p>%s</p></div>
      <p>Log in to your dashboard to view more details and take action.</p>
      <a href="%s" class="button">Go to Dashboard</a>
    </div>
    <div class="footer">
      <p>This is an automated notification from %s.</p>
      <p>Please do not reply to this email.</p>
    </div>
  </div>
</body>
</html>`, companyName, title, message, appURL, companyName)

	return SendEmail(to, title, body)
}
