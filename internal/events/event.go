// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"travel_portal_backend/internal/documents"
	platformevents "travel_portal_backend/platform/events"
	"travel_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = platformevents.Event
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	BaseEvent   = platformevents.BaseEvent
	InMemoryBus = platformevents.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = platformevents.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// =============================================================================
// Wizard Domain Events
// =============================================================================

// PolicyFinalizedEventName is the EventName of PolicyFinalized.
const PolicyFinalizedEventName = "wizard.policy.finalized"

// PolicyFinalized is published once the provider issued a policy for a
// wizard session.
type PolicyFinalized struct {
	BaseEvent
	SessionID       uuid.UUID  `json:"sessionId"`
	QuoteRecordID   *uuid.UUID `json:"quoteRecordId,omitempty"`
	PolicyNumber    string     `json:"policyNumber"`
	ProviderQuoteID string     `json:"providerQuoteId"`
	HolderName      string     `json:"holderName"`
	HolderEmail     string     `json:"holderEmail"`
	QuoteName       string     `json:"quoteName"`
	TotalCents      int64      `json:"totalCents"`
	Currency        string     `json:"currency"`
	// ProviderEmailed is false when the provider did not confirm sending the
	// policy documents itself.
	ProviderEmailed bool `json:"providerEmailed"`
	// Summary is the data of the locally rendered policy summary.
	Summary documents.SummaryData `json:"summary"`
}

func (e PolicyFinalized) EventName() string { return PolicyFinalizedEventName }

// QuotesFetched is published when a session received a quote list.
type QuotesFetched struct {
	BaseEvent
	SessionID uuid.UUID `json:"sessionId"`
	Count     int       `json:"count"`
	Fallback  bool      `json:"fallback"`
}

func (e QuotesFetched) EventName() string { return "wizard.quotes.fetched" }
