package utils

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"lms/config"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: LMS Academy <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// HTML wrapper shared by every outgoing mail
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1E293B; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1E293B; line-height: 1.6; }
			.content h2 { color: #1E293B; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #2563EB; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #2563EB; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LMS Academy</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				This is an automated message. Please do not reply.
			</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}

// SendMembershipExpiryReminder warns a user their membership ends soon
func SendMembershipExpiryReminder(email, name, levelName string, endAt time.Time) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your <strong>%s</strong> membership expires on <strong>%s</strong>.</p>
		<div class="info-box">Renew before it lapses to keep uninterrupted access to your member benefits.</div>
	`, name, levelName, endAt.Format("02 Jan 2006"))

	go SendEmail([]string{email}, "Your membership is expiring soon", getEmailTemplate("Membership Expiring", body))
}

// SendOrderReceipt confirms a successful payment
func SendOrderReceipt(email, name, orderNo string, amount float64) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received your payment for order <strong>%s</strong>.</p>
		<div class="info-box">Amount paid: <strong>%.2f</strong></div>
		<p>Your purchases are available in your account now.</p>
	`, name, orderNo, amount)

	go SendEmail([]string{email}, "Payment received - "+orderNo, getEmailTemplate("Payment Received", body))
}
