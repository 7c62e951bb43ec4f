package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/models"
)

// MailSender delivers one composed message. Abstracted so tests can capture
// messages without a SendGrid account.
type MailSender interface {
	Send(ctx context.Context, message *mail.SGMailV3) error
}

// NoticeResult reports a bulk notice run item by item.
type NoticeResult struct {
	Sent []string `json:"sent"`
	// Skipped lists units that have no owner email on file.
	Skipped []string      `json:"skipped,omitempty"`
	Failed  []BulkFailure `json:"failed,omitempty"`
}

// NotificationService emails each unit its share of an allocated statement.
type NotificationService interface {
	SendStatementNotices(ctx context.Context, condo *models.Condo, statement *models.Statement, allocations []*models.UnitAllocation) (*NoticeResult, error)
}

type notificationService struct {
	sender    MailSender
	fromName  string
	fromEmail string
	logger    *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(sender MailSender, fromName, fromEmail string, logger *zap.Logger) NotificationService {
	return &notificationService{
		sender:    sender,
		fromName:  fromName,
		fromEmail: fromEmail,
		logger:    logger,
	}
}

var _ NotificationService = (*notificationService)(nil)

func (s *notificationService) SendStatementNotices(ctx context.Context, condo *models.Condo, statement *models.Statement, allocations []*models.UnitAllocation) (*NoticeResult, error) {
	result := &NoticeResult{Sent: make([]string, 0, len(allocations))}

	subject := fmt.Sprintf("%s: %s statement for period %s", condo.Name, statement.UtilityType, statement.Period)

	for _, allocation := range allocations {
		if allocation.OwnerEmail == "" {
			result.Skipped = append(result.Skipped, allocation.UnitNumber)
			continue
		}

		from := mail.NewEmail(s.fromName, s.fromEmail)
		to := mail.NewEmail(allocation.OwnerName, allocation.OwnerEmail)
		plain := fmt.Sprintf(
			"Unit %s\n\nYour share of the %s bill (%s) is %.2f (%.2f%% of %.2f).\n",
			allocation.UnitNumber, statement.UtilityType, statement.Period,
			allocation.AllocatedAmount, allocation.Percentage, statement.TotalAmount,
		)
		html := fmt.Sprintf(
			"<p>Unit <strong>%s</strong></p><p>Your share of the %s bill (%s) is <strong>%.2f</strong> (%.2f%% of %.2f).</p>",
			allocation.UnitNumber, statement.UtilityType, statement.Period,
			allocation.AllocatedAmount, allocation.Percentage, statement.TotalAmount,
		)
		message := mail.NewSingleEmail(from, subject, to, plain, html)

		if err := s.sender.Send(ctx, message); err != nil {
			s.logger.Warn("Failed to send statement notice",
				zap.String("unit_number", allocation.UnitNumber),
				zap.Error(err))
			result.Failed = append(result.Failed, BulkFailure{Item: allocation.UnitNumber, Error: err.Error()})
			continue
		}
		result.Sent = append(result.Sent, allocation.UnitNumber)
	}

	s.logger.Info("Statement notices processed",
		zap.String("statement_id", statement.StatementID.String()),
		zap.Int("sent", len(result.Sent)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// sendgridSender is the production MailSender backed by SendGrid. Sandbox
// mode validates the request without delivering mail.
type sendgridSender struct {
	client  *sendgrid.Client
	sandbox bool
}

// NewSendGridSender creates a MailSender using the SendGrid v3 API.
func NewSendGridSender(apiKey string, sandbox bool) MailSender {
	return &sendgridSender{client: sendgrid.NewSendClient(apiKey), sandbox: sandbox}
}

func (s *sendgridSender) Send(ctx context.Context, message *mail.SGMailV3) error {
	if s.sandbox {
		settings := mail.NewMailSettings()
		settings.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = settings
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
