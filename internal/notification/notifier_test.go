package notification

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go-ems/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	err  error
	sent []*gomail.Message
}

func (s *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m...)
	return nil
}

func TestMailNotifier_LeaveReviewed(t *testing.T) {
	sender := &fakeSender{}
	n := NewMailNotifier(sender, "hr@corp.com", zap.NewNop())

	err := n.LeaveReviewed(context.Background(), events.LeaveReviewedEvent{
		EmployeeEmail: "alice@corp.com",
		LeaveType:     "Casual",
		StartDate:     "2024-03-11",
		EndDate:       "2024-03-13",
		Status:        "Accepted",
		ReviewedBy:    "boss@admin.com",
	})

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"alice@corp.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"hr@corp.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"Your leave request was Accepted"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2024-03-11")
}

func TestMailNotifier_SendFailure(t *testing.T) {
	n := NewMailNotifier(&fakeSender{err: errors.New("smtp down")}, "hr@corp.com", nil)

	err := n.EmployeeOnboarded(context.Background(), events.EmployeeOnboardedEvent{Email: "alice@corp.com", Name: "Alice"})

	assert.ErrorContains(t, err, "smtp down")
}

func TestNewNotifier_WithoutHostIsNoop(t *testing.T) {
	n := NewNotifier(MailConfig{})

	_, ok := n.(*noopNotifier)
	assert.True(t, ok)
	assert.NoError(t, n.LeaveReviewed(context.Background(), events.LeaveReviewedEvent{EmployeeEmail: "a@corp.com"}))
}

func TestNewNotifier_WithHostUsesSMTP(t *testing.T) {
	n := NewNotifier(MailConfig{Host: "smtp.corp.com", Port: 587, From: "hr@corp.com"})

	mail, ok := n.(*mailNotifier)
	require.True(t, ok)
	dialer, ok := mail.sender.(*gomail.Dialer)
	require.True(t, ok)
	assert.Equal(t, "smtp.corp.com", dialer.Host)
	assert.Equal(t, 587, dialer.Port)
}
