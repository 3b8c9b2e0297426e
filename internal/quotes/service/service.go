package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"travel_portal_backend/internal/quotes/repository"
	"travel_portal_backend/internal/quotes/transport"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is the persistence the quotes service needs.
type Repository interface {
	NextReference(ctx context.Context, now time.Time) (string, error)
	CreateWithItems(ctx context.Context, quote *repository.QuoteRecord, items []repository.QuoteItem) error
	UpdateWithItems(ctx context.Context, quote *repository.QuoteRecord, items []repository.QuoteItem) error
	MarkIssued(ctx context.Context, id uuid.UUID, providerQuoteID, policyNumber string, totalCents int64) error
	CreatePayment(ctx context.Context, p *repository.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.QuoteRecord, error)
}

// Service provides business logic for wizard quote records.
type Service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new quotes service
func New(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// dbError logs storage failures. Typed domain errors such as NotFound pass
// through unlogged.
func (s *Service) dbError(ctx context.Context, op string, err error) error {
	if err != nil && apperr.GetKind(err) == apperr.KindUnknown {
		s.log.WithContext(ctx).DatabaseError(op, err)
	}
	return err
}

// SaveDraft creates the quote record of a session or rewrites it while it
// is still a draft. Totals are computed server-side.
func (s *Service) SaveDraft(ctx context.Context, draft transport.Draft) (*transport.SavedDraft, error) {
	if len(draft.Lines) == 0 || draft.Lines[0].Kind != transport.LineKindBase {
		return nil, apperr.Validation("draft must start with the base premium line")
	}

	travelers, err := json.Marshal(draft.Travelers)
	if err != nil {
		return nil, fmt.Errorf("encode travelers: %w", err)
	}

	now := s.now()
	total := CalculateTotal(draft.Lines, draft.TotalCents)
	record := repository.QuoteRecord{
		SessionID:        draft.SessionID,
		Status:           "draft",
		Destination:      draft.Destination,
		ResidenceCountry: draft.ResidenceCountry,
		PolicyType:       draft.PolicyType,
		StartDate:        draft.StartDate,
		EndDate:          draft.EndDate,
		TravelerCount:    len(draft.Travelers),
		Travelers:        travelers,
		HolderEmail:      strings.ToLower(strings.TrimSpace(draft.HolderEmail)),
		QuoteName:        draft.QuoteName,
		SchemeID:         draft.SchemeID,
		PolicyTypeName:   draft.PolicyTypeName,
		TotalCents:       total,
		Currency:         strings.ToUpper(draft.Currency),
		UpdatedAt:        now,
	}

	if draft.ID != nil {
		existing, err := s.repo.GetByID(ctx, *draft.ID)
		if err != nil {
			return nil, s.dbError(ctx, "quotes.get", err)
		}
		if existing.Status != "draft" {
			return nil, apperr.Conflict("quote record already issued")
		}
		record.ID = existing.ID
		record.Reference = existing.Reference
		record.CreatedAt = existing.CreatedAt
		if err := s.repo.UpdateWithItems(ctx, &record, buildItems(record.ID, draft.Lines, now)); err != nil {
			return nil, s.dbError(ctx, "quotes.update", err)
		}
		return &transport.SavedDraft{ID: record.ID, Reference: record.Reference, TotalCents: total}, nil
	}

	reference, err := s.repo.NextReference(ctx, now)
	if err != nil {
		return nil, s.dbError(ctx, "quotes.next_reference", fmt.Errorf("generate quote reference: %w", err))
	}
	record.ID = uuid.New()
	record.Reference = reference
	record.CreatedAt = now
	if err := s.repo.CreateWithItems(ctx, &record, buildItems(record.ID, draft.Lines, now)); err != nil {
		return nil, s.dbError(ctx, "quotes.create", err)
	}
	return &transport.SavedDraft{ID: record.ID, Reference: reference, TotalCents: total}, nil
}

// MarkIssued records the provider's identifiers on an issued record.
func (s *Service) MarkIssued(ctx context.Context, id uuid.UUID, providerQuoteID, policyNumber string, totalCents int64) error {
	if strings.TrimSpace(policyNumber) == "" {
		return apperr.Validation("policy number is required")
	}
	return s.dbError(ctx, "quotes.mark_issued", s.repo.MarkIssued(ctx, id, providerQuoteID, policyNumber, totalCents))
}

// RecordPayment writes the payment row for an issued policy.
func (s *Service) RecordPayment(ctx context.Context, rec transport.PaymentRecord) error {
	if len(rec.CardLast4) != 4 {
		return apperr.Validation("card last four digits are required")
	}
	if rec.AmountCents < 0 {
		return apperr.Validation("payment amount cannot be negative")
	}
	err := s.repo.CreatePayment(ctx, &repository.Payment{
		ID:             uuid.New(),
		QuoteID:        rec.QuoteID,
		AmountCents:    rec.AmountCents,
		Currency:       strings.ToUpper(rec.Currency),
		CardholderName: rec.CardholderName,
		CardLast4:      rec.CardLast4,
		PolicyNumber:   rec.PolicyNumber,
		CreatedAt:      s.now(),
	})
	return s.dbError(ctx, "payments.create", err)
}

// GetByID returns a quote record.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.QuoteRecordResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.dbError(ctx, "quotes.get", err)
	}
	return &transport.QuoteRecordResponse{
		ID:              q.ID,
		Reference:       q.Reference,
		Status:          q.Status,
		QuoteName:       q.QuoteName,
		TotalCents:      q.TotalCents,
		Currency:        q.Currency,
		ProviderQuoteID: q.ProviderQuoteID,
		PolicyNumber:    q.PolicyNumber,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}, nil
}

func buildItems(quoteID uuid.UUID, lines []transport.DraftLine, now time.Time) []repository.QuoteItem {
	items := make([]repository.QuoteItem, 0, len(lines))
	for i, l := range lines {
		var alteration *string
		if l.AlterationID != "" {
			a := l.AlterationID
			alteration = &a
		}
		items = append(items, repository.QuoteItem{
			ID:           uuid.New(),
			QuoteID:      quoteID,
			Kind:         l.Kind,
			Description:  l.Description,
			AlterationID: alteration,
			PriceCents:   l.PriceCents,
			PriceIsKnown: l.Kind == transport.LineKindBase || l.PriceKnown,
			SortOrder:    i,
			CreatedAt:    now,
		})
	}
	return items
}
