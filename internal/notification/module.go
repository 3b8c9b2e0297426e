// Package notification provides event handlers for sending notifications
// in response to domain events. Domain modules publish events and never
// talk to email providers or job queues themselves.
package notification

import (
	"context"

	"travel_portal_backend/internal/events"
	"travel_portal_backend/internal/scheduler"
	"travel_portal_backend/platform/logger"
)

// Mailer delivers a policy confirmation synchronously.
type Mailer interface {
	Deliver(ctx context.Context, payload scheduler.PolicyConfirmationPayload) error
}

// Module handles wizard events. Confirmations are queued when a scheduler
// is configured and sent directly otherwise.
type Module struct {
	scheduler scheduler.ConfirmationScheduler
	mailer    Mailer
	log       *logger.Logger
}

// New creates the notification module. Either collaborator may be nil.
func New(sched scheduler.ConfirmationScheduler, mailer Mailer, log *logger.Logger) *Module {
	return &Module{scheduler: sched, mailer: mailer, log: log}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.PolicyFinalizedEventName, m)
	bus.Subscribe(events.QuotesFetched{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PolicyFinalized:
		return m.handlePolicyFinalized(ctx, e)
	case events.QuotesFetched:
		m.handleQuotesFetched(ctx, e)
		return nil
	default:
		return nil
	}
}

func (m *Module) handlePolicyFinalized(ctx context.Context, e events.PolicyFinalized) error {
	log := m.log.WithContext(ctx).WithSessionID(e.SessionID.String())
	payload := scheduler.PolicyConfirmationPayload{
		SessionID:       e.SessionID.String(),
		PolicyNumber:    e.PolicyNumber,
		HolderName:      e.HolderName,
		HolderEmail:     e.HolderEmail,
		QuoteName:       e.QuoteName,
		TotalCents:      e.TotalCents,
		Currency:        e.Currency,
		ProviderEmailed: e.ProviderEmailed,
		Summary:         e.Summary,
	}

	if m.scheduler != nil {
		err := m.scheduler.EnqueuePolicyConfirmation(ctx, payload)
		if err == nil {
			log.Info("policy confirmation queued", "policy_number", e.PolicyNumber)
			return nil
		}
		log.Warn("failed to queue policy confirmation, sending directly", "policy_number", e.PolicyNumber, "error", err)
	}

	if m.mailer == nil {
		log.Warn("policy confirmation not sent, email is not configured", "policy_number", e.PolicyNumber)
		return nil
	}
	if err := m.mailer.Deliver(ctx, payload); err != nil {
		log.Error("policy confirmation failed", "policy_number", e.PolicyNumber, "error", err)
		return err
	}
	return nil
}

func (m *Module) handleQuotesFetched(ctx context.Context, e events.QuotesFetched) {
	if !e.Fallback {
		return
	}
	m.log.WithContext(ctx).Warn("live pricing unavailable, sample quotes shown",
		"session_id", e.SessionID.String(), "quotes", e.Count)
}
