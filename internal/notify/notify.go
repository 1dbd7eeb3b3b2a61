// Package notify tells human support about escalated sessions by SES email and SNS topic.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "support-router/internal/common/errors"
	"support-router/internal/common/logger"
	"support-router/internal/common/metrics"
	"support-router/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	ChannelEmail = "email"
	ChannelSNS   = "sns"
)

var ErrNotificationFailed = errors.New("NOTIFICATION_SEND_FAILED")

// EmailSender is satisfied by *ses.Client.
type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// TopicPublisher is satisfied by *sns.Client.
type TopicPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	FromEmail string
	ToEmail   string
	TopicARN  string
}

// Notifier sends each escalation to every configured channel. A nil sender disables its channel.
type Notifier struct {
	config Config
	email  EmailSender
	topic  TopicPublisher
	logger logger.Logger
}

func New(config Config, email EmailSender, topic TopicPublisher, log logger.Logger) *Notifier {
	return &Notifier{
		config: config,
		email:  email,
		topic:  topic,
		logger: log.WithFields(map[string]interface{}{"component": "escalation-notifier"}),
	}
}

// NotifyEscalation tries every channel and joins their failures.
func (n *Notifier) NotifyEscalation(ctx context.Context, event models.EscalationEvent) error {
	var errs []error

	if n.email != nil {
		errs = append(errs, n.record(ChannelEmail, event, n.sendEmail(ctx, event)))
	}
	if n.topic != nil {
		errs = append(errs, n.record(ChannelSNS, event, n.publish(ctx, event)))
	}
	return errors.Join(errs...)
}

func (n *Notifier) record(channel string, event models.EscalationEvent, err error) error {
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(channel, "failed").Inc()
		n.logger.Error("escalation notification failed", map[string]interface{}{
			"channel":  channel,
			"ticketId": event.TicketID,
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrNotificationFailed, apperrors.NewNotificationSendFailedError(channel, err))
	}

	metrics.NotificationsSent.WithLabelValues(channel, "sent").Inc()
	n.logger.Info("escalation notification sent", map[string]interface{}{
		"channel":  channel,
		"ticketId": event.TicketID,
	})
	return nil
}

func subject(event models.EscalationEvent) string {
	return fmt.Sprintf("[Support escalation] Ticket %s", event.TicketID)
}

func body(event models.EscalationEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket: %s\n", event.TicketID)
	fmt.Fprintf(&b, "Session: %s\n", event.SessionID)
	fmt.Fprintf(&b, "Reason: %s\n", event.Reason)
	fmt.Fprintf(&b, "Time: %s\n", event.OccurredAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "\nLast customer message:\n%s\n", event.Query)
	return b.String()
}

func (n *Notifier) sendEmail(ctx context.Context, event models.EscalationEvent) error {
	_, err := n.email.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{n.config.ToEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject(event))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body(event))},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) publish(ctx context.Context, event models.EscalationEvent) error {
	_, err := n.topic.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.TopicARN),
		Subject:  aws.String(subject(event)),
		Message:  aws.String(body(event)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"reason": {DataType: aws.String("String"), StringValue: aws.String(event.Reason)},
		},
	})
	return err
}
