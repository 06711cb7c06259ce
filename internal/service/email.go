package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/tzayo/library-management-system/internal/config"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
)

// ErrEmailDisabled is returned by the disabled provider so callers leave
// reminders pending instead of marking them sent.
var ErrEmailDisabled = errors.New("email delivery is disabled")

const dateLayout = "01/02/2006"

// Message is one outbound email with a plain-text body and an optional HTML alternative.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// MailSender delivers a single message through a provider.
type MailSender interface {
	Send(ctx context.Context, msg Message) error
}

type disabledSender struct{}

func (disabledSender) Send(ctx context.Context, msg Message) error {
	logger.Debug("Email not sent, delivery disabled", "to", msg.To, "subject", msg.Subject)
	return ErrEmailDisabled
}

// NewMailSender picks the provider named in cfg.Email.Provider.
func NewMailSender(cfg *config.Config) MailSender {
	switch cfg.Email.Provider {
	case config.EmailProviderSMTP:
		return NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.Email.From, cfg.Email.FromName)
	case config.EmailProviderSendGrid:
		return NewSendGridSender(cfg.SendGrid.APIKey, cfg.Email.From, cfg.Email.FromName)
	default:
		return disabledSender{}
	}
}

type emailService struct {
	sender MailSender
	appURL string
}

func NewEmailService(sender MailSender, appURL string) EmailService {
	if sender == nil {
		sender = disabledSender{}
	}
	return &emailService{sender: sender, appURL: strings.TrimRight(appURL, "/")}
}

func NewEmailServiceFromConfig(cfg *config.Config) EmailService {
	return NewEmailService(NewMailSender(cfg), cfg.Email.AppURL)
}

var (
	welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html lang="en"><body style="font-family: Arial, sans-serif; color: #333;">
<h1>Welcome to the Library</h1>
<h2>Hello {{.Name}},</h2>
<p>We're happy you've joined the Library Management System!</p>
<p>You can now:</p>
<ul>
<li>View the complete book catalog</li>
<li>Search books by name, author, or category</li>
<li>Check book availability</li>
<li>Track your loans</li>
</ul>
<p>To borrow books, please contact the librarian during library opening hours.</p>
{{if .LoginURL}}<p><a href="{{.LoginURL}}">Login to System</a></p>{{end}}
<p style="font-size: 12px; color: #666;">This email was sent automatically, please do not reply.</p>
</body></html>`))

	reminderHTML = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html lang="en"><body style="font-family: Arial, sans-serif; color: #333;">
<h1>{{if .Overdue}}Book Return Overdue{{else}}Book Return Reminder{{end}}</h1>
<h2>Hello {{.Name}},</h2>
{{if .Overdue}}<p style="color: #E74C3C; font-weight: bold;">The book below was due {{.Days}} days ago.</p>
{{else}}<p>This is a reminder that you need to return the book below in {{.Days}} days.</p>
{{end}}<p><strong>Title:</strong> {{.Title}}</p>
{{if .Author}}<p><strong>Author:</strong> {{.Author}}</p>
{{end}}<p><strong>Borrowed on:</strong> {{.BorrowedOn}}</p>
<p><strong>Due date:</strong> {{.DueOn}}</p>
<p>Please return the book to the library as soon as possible during opening hours.</p>
<p>Thank you!</p>
</body></html>`))

	batchHTML = template.Must(template.New("batch").Parse(`<!DOCTYPE html>
<html lang="en"><body style="font-family: Arial, sans-serif; color: #333;">
<h1>Books Return Reminder</h1>
<h2>Hello {{.Name}},</h2>
<p>You have {{len .Books}} books that need to be returned soon:</p>
<ul>
{{range .Books}}<li><strong>{{.Title}}</strong>{{if .Author}} - {{.Author}}{{end}} (Due: {{.DueOn}})</li>
{{end}}</ul>
<p>Please return the books to the library during opening hours.</p>
<p>Thank you!</p>
</body></html>`))
)

type reminderLine struct {
	Title  string
	Author string
	DueOn  string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func (s *emailService) send(ctx context.Context, kind string, msg Message) error {
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s email to %s: %w", kind, msg.To, err)
	}
	logger.WithService("email").InfoContext(ctx, "Email sent", "kind", kind, "to", msg.To)
	return nil
}

func (s *emailService) SendWelcome(ctx context.Context, user domain.User) error {
	loginURL := ""
	if s.appURL != "" {
		loginURL = s.appURL + "/login"
	}
	html, err := render(welcomeHTML, map[string]any{"Name": user.FullName, "LoginURL": loginURL})
	if err != nil {
		return err
	}
	text := fmt.Sprintf(`Hello %s,

We're happy you've joined the Library Management System!

You can now:
- View the complete book catalog
- Search books by name, author, or category
- Check book availability
- Track your loans

To borrow books, please contact the librarian during library opening hours.

Library Management System
`, user.FullName)

	return s.send(ctx, "welcome", Message{
		To:      user.Email,
		ToName:  user.FullName,
		Subject: "Welcome to the Library",
		Text:    text,
		HTML:    html,
	})
}

// ReminderSubject is the subject line for a single-loan reminder.
func ReminderSubject(title string, overdue bool) string {
	if overdue {
		return fmt.Sprintf("Book Return Overdue - %s", title)
	}
	return fmt.Sprintf("Reminder: Return Book \"%s\"", title)
}

func (s *emailService) SendLoanReminder(ctx context.Context, user domain.User, item domain.ReminderItem, now time.Time) error {
	days, _ := item.Loan.DaysUntilDue(now)
	overdue := days < 0
	if overdue {
		days = -days
	}

	html, err := render(reminderHTML, map[string]any{
		"Name":       user.FullName,
		"Overdue":    overdue,
		"Days":       days,
		"Title":      item.Book.Title,
		"Author":     item.Book.Author,
		"BorrowedOn": item.Loan.BorrowedAt.Format(dateLayout),
		"DueOn":      item.Loan.DueDate.Format(dateLayout),
	})
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.FullName)
	if overdue {
		fmt.Fprintf(&b, "The book \"%s\" was due %d days ago.\n\n", item.Book.Title, days)
	} else {
		fmt.Fprintf(&b, "This is a reminder that you need to return the book \"%s\" in %d days.\n\n", item.Book.Title, days)
	}
	b.WriteString("Book Details:\n")
	fmt.Fprintf(&b, "- Title: %s\n", item.Book.Title)
	if item.Book.Author != "" {
		fmt.Fprintf(&b, "- Author: %s\n", item.Book.Author)
	}
	fmt.Fprintf(&b, "- Borrowed on: %s\n", item.Loan.BorrowedAt.Format(dateLayout))
	fmt.Fprintf(&b, "- Due date: %s\n\n", item.Loan.DueDate.Format(dateLayout))
	b.WriteString("Please return the book to the library as soon as possible.\n\nThank you!\nLibrary Management System\n")

	return s.send(ctx, "reminder", Message{
		To:      user.Email,
		ToName:  user.FullName,
		Subject: ReminderSubject(item.Book.Title, overdue),
		Text:    b.String(),
		HTML:    html,
	})
}

func (s *emailService) SendBatchReminder(ctx context.Context, user domain.User, items []domain.ReminderItem, now time.Time) error {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		return s.SendLoanReminder(ctx, user, items[0], now)
	}

	lines := make([]reminderLine, 0, len(items))
	var list strings.Builder
	for _, it := range items {
		line := reminderLine{Title: it.Book.Title, Author: it.Book.Author, DueOn: it.Loan.DueDate.Format(dateLayout)}
		lines = append(lines, line)
		fmt.Fprintf(&list, "- %s", line.Title)
		if line.Author != "" {
			fmt.Fprintf(&list, " - %s", line.Author)
		}
		fmt.Fprintf(&list, " (Due: %s)\n", line.DueOn)
	}

	html, err := render(batchHTML, map[string]any{"Name": user.FullName, "Books": lines})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Hello %s,\n\nYou have %d books that need to be returned soon:\n\n%s\nPlease return the books to the library during opening hours.\n\nThank you!\nLibrary Management System\n",
		user.FullName, len(items), list.String())

	return s.send(ctx, "batch reminder", Message{
		To:      user.Email,
		ToName:  user.FullName,
		Subject: fmt.Sprintf("Reminder: Return %d Books", len(items)),
		Text:    text,
		HTML:    html,
	})
}
