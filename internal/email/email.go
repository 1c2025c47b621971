// Package email provides email sending functionality
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// Service handles email sending
type Service struct {
	config    *Config
	templates map[string]*template.Template
}

// NewService creates a new email service
func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Email represents an email message
type Email struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	HTMLBody string
}

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {

	// Task Reminder Template
	s.templates["task_reminder"] = template.Must(template.New("task_reminder").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #ef4444 0%, #dc2626 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f9fafb; padding: 30px; border-radius: 0 0 10px 10px; }
        .task-card { background: white; border-radius: 8px; padding: 20px; margin: 20px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .due { color: #ef4444; font-weight: bold; }
        .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>⏰ Task Reminder</h1>
        </div>
        <div class="content">
            <p>Hi {{.VolunteerName}},</p>
            <p>You have an open task that needs your attention:</p>

            <div class="task-card">
                <h2>{{.TaskTitle}}</h2>
                {{if .Deadline}}<p class="due">Due: {{.Deadline}}</p>{{end}}
            </div>

            <p>Please log in to SOI Hub to complete it.</p>
        </div>
        <div class="footer">
            <p>This email was sent from SOI Hub</p>
        </div>
    </div>
</body>
</html>
`))

	// Assignment Confirmed Template
	s.templates["assignment_confirmed"] = template.Must(template.New("assignment_confirmed").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #10b981 0%, #059669 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f9fafb; padding: 30px; border-radius: 0 0 10px 10px; }
        .role-card { background: white; border-radius: 8px; padding: 20px; margin: 20px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🎉 Assignment Confirmed</h1>
        </div>
        <div class="content">
            <p>Hi {{.VolunteerName}},</p>
            <p>Your volunteer assignment has been confirmed.</p>

            <div class="role-card">
                <h2>{{.RoleName}}</h2>
            </div>

            <p>Check SOI Hub for your onboarding tasks.</p>
        </div>
        <div class="footer">
            <p>This email was sent from SOI Hub</p>
        </div>
    </div>
</body>
</html>
`))

	// Submission Reviewed Template
	s.templates["task_reviewed"] = template.Must(template.New("task_reviewed").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #3b82f6 0%, #2563eb 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f9fafb; padding: 30px; border-radius: 0 0 10px 10px; }
        .outcome { background: white; border-left: 4px solid {{if .Approved}}#10b981{{else}}#ef4444{{end}}; padding: 20px; margin: 20px 0; border-radius: 0 8px 8px 0; }
        .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{if .Approved}}✅ Submission Approved{{else}}❌ Submission Rejected{{end}}</h1>
        </div>
        <div class="content">
            <p>Hi {{.VolunteerName}},</p>
            <p>Your submission for <strong>{{.TaskTitle}}</strong> has been reviewed.</p>

            <div class="outcome">
                {{if .Approved}}
                <p>The task is complete. No further action is needed.</p>
                {{else}}
                <p><strong>Reason:</strong> {{.Reason}}</p>
                <p>You can amend your submission and resubmit.</p>
                {{end}}
            </div>
        </div>
        <div class="footer">
            <p>This email was sent from SOI Hub</p>
        </div>
    </div>
</body>
</html>
`))
}

// Send sends an email
func (s *Service) Send(email *Email) error {
	var msg bytes.Buffer

	// Headers
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	if len(email.CC) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(email.CC, ", ")))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody != "" {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.HTMLBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.Body)
	}

	// Build recipient list
	recipients := append(email.To, email.CC...)
	recipients = append(recipients, email.BCC...)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.config.Host,
		}

		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("TLS dial error: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			return fmt.Errorf("SMTP client error: %w", err)
		}
		defer client.Close()

		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("auth error: %w", err)
		}

		if err = client.Mail(s.config.From); err != nil {
			return fmt.Errorf("mail error: %w", err)
		}

		for _, rcpt := range recipients {
			if err = client.Rcpt(rcpt); err != nil {
				return fmt.Errorf("rcpt error: %w", err)
			}
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("data error: %w", err)
		}

		_, err = w.Write(msg.Bytes())
		if err != nil {
			return fmt.Errorf("write error: %w", err)
		}

		err = w.Close()
		if err != nil {
			return fmt.Errorf("close error: %w", err)
		}

		return client.Quit()
	}

	// Non-TLS
	return smtp.SendMail(addr, auth, s.config.From, recipients, msg.Bytes())
}

// SendWithTemplate sends an email using a template
func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	return s.Send(&Email{
		To:       to,
		Subject:  subject,
		HTMLBody: body.String(),
	})
}

// ============================================
// Convenience Methods
// ============================================

// TaskReminderData holds data for task reminder email
type TaskReminderData struct {
	VolunteerName string
	TaskTitle     string
	Deadline      string
}

// SendTaskReminder sends a task reminder email
func (s *Service) SendTaskReminder(to, volunteerName, taskTitle string, deadline *time.Time) error {
	data := TaskReminderData{
		VolunteerName: volunteerName,
		TaskTitle:     taskTitle,
	}
	if deadline != nil {
		data.Deadline = deadline.Format("Monday, 2 January 2006")
	}
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[SOI Hub] Reminder: %s", taskTitle),
		"task_reminder",
		data,
	)
}

// AssignmentConfirmedData holds data for assignment confirmed email
type AssignmentConfirmedData struct {
	VolunteerName string
	RoleName      string
}

// SendAssignmentConfirmed sends an assignment confirmed email
func (s *Service) SendAssignmentConfirmed(to, volunteerName, roleName string) error {
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[SOI Hub] Assignment Confirmed: %s", roleName),
		"assignment_confirmed",
		AssignmentConfirmedData{VolunteerName: volunteerName, RoleName: roleName},
	)
}

// TaskReviewedData holds data for submission reviewed email
type TaskReviewedData struct {
	VolunteerName string
	TaskTitle     string
	Approved      bool
	Reason        string
}

// SendTaskReviewed sends a submission reviewed email
func (s *Service) SendTaskReviewed(to, volunteerName, taskTitle string, approved bool, reason string) error {
	subject := fmt.Sprintf("[SOI Hub] Submission Approved: %s", taskTitle)
	if !approved {
		subject = fmt.Sprintf("[SOI Hub] Submission Rejected: %s", taskTitle)
	}
	return s.SendWithTemplate(
		[]string{to},
		subject,
		"task_reviewed",
		TaskReviewedData{
			VolunteerName: volunteerName,
			TaskTitle:     taskTitle,
			Approved:      approved,
			Reason:        reason,
		},
	)
}
