// Package notification e-mails employees about changes to their records.
package notification

import (
	"context"
	"fmt"

	"go-ems/internal/events"
	"go-ems/internal/shared/contextutil"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:generate mockgen -source=notifier.go -destination=mock/notifier_mock.go -package=mock
type Notifier interface {
	LeaveReviewed(ctx context.Context, ev events.LeaveReviewedEvent) error
	EmployeeOnboarded(ctx context.Context, ev events.EmployeeOnboardedEvent) error
}

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type mailNotifier struct {
	sender Sender
	from   string
	logger *zap.Logger
}

// NewNotifier returns an SMTP notifier, or one that only logs when no mail
// host is configured.
func NewNotifier(cfg MailConfig, logger ...*zap.Logger) Notifier {
	l := zap.L().Named("notification")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification")
	}
	if cfg.Host == "" {
		return &noopNotifier{logger: l}
	}
	return NewMailNotifier(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, l)
}

func NewMailNotifier(sender Sender, from string, logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &mailNotifier{sender: sender, from: from, logger: logger}
}

func (n *mailNotifier) LeaveReviewed(ctx context.Context, ev events.LeaveReviewedEvent) error {
	subject := fmt.Sprintf("Your leave request was %s", ev.Status)
	body := fmt.Sprintf(
		"<p>Your %s leave from %s to %s was <b>%s</b> by %s.</p>",
		ev.LeaveType, ev.StartDate, ev.EndDate, ev.Status, ev.ReviewedBy,
	)
	return n.send(ctx, ev.EmployeeEmail, subject, body)
}

func (n *mailNotifier) EmployeeOnboarded(ctx context.Context, ev events.EmployeeOnboardedEvent) error {
	subject := "Welcome aboard"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your account %s is ready. Sign in with the password your administrator shared with you.</p>",
		ev.Name, ev.Email,
	)
	return n.send(ctx, ev.Email, subject, body)
}

func (n *mailNotifier) send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	contextutil.GetLogger(ctx, n.logger).Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type noopNotifier struct {
	logger *zap.Logger
}

func (n *noopNotifier) LeaveReviewed(ctx context.Context, ev events.LeaveReviewedEvent) error {
	contextutil.GetLogger(ctx, n.logger).Debug("mail disabled, leave review not sent",
		zap.String("to", ev.EmployeeEmail),
		zap.String("status", ev.Status),
	)
	return nil
}

func (n *noopNotifier) EmployeeOnboarded(ctx context.Context, ev events.EmployeeOnboardedEvent) error {
	contextutil.GetLogger(ctx, n.logger).Debug("mail disabled, welcome not sent", zap.String("to", ev.Email))
	return nil
}
