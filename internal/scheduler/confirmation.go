package scheduler

import (
	"context"
	"fmt"
	"strings"

	"travel_portal_backend/internal/documents"
	"travel_portal_backend/internal/email"
	"travel_portal_backend/platform/logger"
)

// SummaryRenderer renders the policy summary attached to confirmations.
type SummaryRenderer interface {
	RenderSummary(ctx context.Context, data documents.SummaryData) (*documents.Document, error)
}

// ConfirmationMailer renders the policy summary and emails the confirmation.
type ConfirmationMailer struct {
	renderer SummaryRenderer
	sender   email.Sender
	log      *logger.Logger
}

func NewConfirmationMailer(renderer SummaryRenderer, sender email.Sender, log *logger.Logger) *ConfirmationMailer {
	return &ConfirmationMailer{renderer: renderer, sender: sender, log: log}
}

// Deliver sends the confirmation. A summary that fails to render is left
// out; a failed send is returned so the job is retried.
func (m *ConfirmationMailer) Deliver(ctx context.Context, payload PolicyConfirmationPayload) error {
	if strings.TrimSpace(payload.HolderEmail) == "" {
		m.log.Warn("policy confirmation skipped, no holder email", "policy_number", payload.PolicyNumber)
		return nil
	}

	var attachments []email.Attachment
	if m.renderer != nil {
		doc, err := m.renderer.RenderSummary(ctx, payload.Summary)
		if err != nil {
			m.log.Warn("policy summary not attached", "policy_number", payload.PolicyNumber, "error", err)
		} else {
			attachments = append(attachments, email.Attachment{
				Content:  doc.Content,
				FileName: doc.Filename,
				MIMEType: doc.ContentType,
			})
		}
	}

	err := m.sender.SendPolicyConfirmation(ctx, email.PolicyConfirmation{
		ToEmail:         payload.HolderEmail,
		HolderName:      payload.HolderName,
		PolicyNumber:    payload.PolicyNumber,
		QuoteName:       payload.QuoteName,
		TotalCents:      payload.TotalCents,
		Currency:        payload.Currency,
		DocumentsURL:    payload.Summary.DocumentsURL,
		ProviderEmailed: payload.ProviderEmailed,
	}, attachments...)
	if err != nil {
		return fmt.Errorf("send policy confirmation %s: %w", payload.PolicyNumber, err)
	}

	m.log.Info("policy confirmation sent", "policy_number", payload.PolicyNumber, "attachments", len(attachments))
	return nil
}
