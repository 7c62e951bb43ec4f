package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/models"
)

// captureSender records composed messages instead of delivering them.
type captureSender struct {
	messages []*mail.SGMailV3
	failFor  map[string]error // keyed by recipient email
}

func (s *captureSender) Send(ctx context.Context, message *mail.SGMailV3) error {
	recipient := message.Personalizations[0].To[0].Address
	if err, ok := s.failFor[recipient]; ok {
		return err
	}
	s.messages = append(s.messages, message)
	return nil
}

func noticeFixtures() (*models.Condo, *models.Statement, []*models.UnitAllocation) {
	condo := &models.Condo{ID: uuid.New(), Name: "Aqua Towers", PrefixCode: "AQUA"}
	statement := &models.Statement{
		StatementID: uuid.New(),
		Period:      "20240301",
		UtilityType: "WATER",
		TotalAmount: 300,
	}
	allocations := []*models.UnitAllocation{
		{UnitNumber: "101", OwnerName: "Ana", OwnerEmail: "ana@example.com", AllocatedAmount: 100, Percentage: 100.0 / 3},
		{UnitNumber: "102", OwnerName: "Ben", OwnerEmail: "ben@example.com", AllocatedAmount: 100, Percentage: 100.0 / 3},
		{UnitNumber: "103", OwnerName: "Cora", OwnerEmail: "", AllocatedAmount: 100, Percentage: 100.0 / 3},
	}
	return condo, statement, allocations
}

func TestSendStatementNotices(t *testing.T) {
	condo, statement, allocations := noticeFixtures()
	sender := &captureSender{}
	service := NewNotificationService(sender, "Condo Billing", "billing@aqua.test", zap.NewNop())

	result, err := service.SendStatementNotices(context.Background(), condo, statement, allocations)
	require.NoError(t, err)

	assert.Equal(t, []string{"101", "102"}, result.Sent)
	// Units with no owner email on file are skipped, not failed.
	assert.Equal(t, []string{"103"}, result.Skipped)
	assert.Empty(t, result.Failed)

	require.Len(t, sender.messages, 2)
	first := sender.messages[0]
	assert.Equal(t, "billing@aqua.test", first.From.Address)
	assert.Equal(t, "ana@example.com", first.Personalizations[0].To[0].Address)
	assert.Contains(t, first.Subject, "Aqua Towers")
	assert.Contains(t, first.Subject, "WATER")
	assert.Contains(t, first.Content[0].Value, "101")
	assert.Contains(t, first.Content[0].Value, "100.00")
}

func TestSendStatementNotices_DeliveryFailure(t *testing.T) {
	condo, statement, allocations := noticeFixtures()
	sender := &captureSender{failFor: map[string]error{
		"ben@example.com": errors.New("rate limited"),
	}}
	service := NewNotificationService(sender, "Condo Billing", "billing@aqua.test", zap.NewNop())

	result, err := service.SendStatementNotices(context.Background(), condo, statement, allocations)
	require.NoError(t, err)

	assert.Equal(t, []string{"101"}, result.Sent)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "102", result.Failed[0].Item)
	assert.Contains(t, result.Failed[0].Error, "rate limited")
}
