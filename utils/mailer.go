package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"flagnest/config"
)

// Embedded email templates
var emailTemplates = map[string]string{
	"team_invite": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .invite-code { font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>You've been invited to join {{.TeamName}}</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>You've been invited to join the team <strong>{{.TeamName}}</strong>. Use this invite code to accept:</p>

        <div class="invite-code">{{.Code}}</div>

        <p>This invite expires on {{.ExpiresAt}}. The code can only be used once.</p>
    </div>

    <div class="footer">
        <p>If you weren't expecting this invitation, you can safely ignore this email.</p>
        <p>© {{.Year}} Flagnest. All rights reserved.</p>
    </div>
</body>
</html>`,
}

// Mailer sends transactional email over the configured SMTP relay
type Mailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// SendTeamInvite mails a single-use invite code to the given address
func (m *Mailer) SendTeamInvite(toEmail, teamName, code string, expiresAt time.Time) error {
	subject := fmt.Sprintf("Invitation to join %s", teamName)
	body, err := m.render("team_invite", struct {
		Subject   string
		TeamName  string
		Code      string
		ExpiresAt string
		Year      int
	}{
		Subject:   subject,
		TeamName:  teamName,
		Code:      code,
		ExpiresAt: expiresAt.Format("January 2, 2006"),
		Year:      time.Now().Year(),
	})
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail))
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}

func (m *Mailer) render(name string, data interface{}) (string, error) {
	tmplContent, ok := emailTemplates[name]
	if !ok {
		return "", fmt.Errorf("template '%s' not found", name)
	}

	tmpl, err := template.New("email").Parse(tmplContent)
	if err != nil {
		return "", fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("error executing template: %v", err)
	}
	return body.String(), nil
}
