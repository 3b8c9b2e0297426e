package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"travel_portal_backend/internal/quotes/repository"
	"travel_portal_backend/internal/quotes/transport"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	records    map[uuid.UUID]*repository.QuoteRecord
	items      map[uuid.UUID][]repository.QuoteItem
	payments   []repository.Payment
	counter    int
	paymentErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: map[uuid.UUID]*repository.QuoteRecord{},
		items:   map[uuid.UUID][]repository.QuoteItem{},
	}
}

func (f *fakeRepo) NextReference(_ context.Context, now time.Time) (string, error) {
	f.counter++
	return fmt.Sprintf("TQ-%d-%05d", now.Year(), f.counter), nil
}

func (f *fakeRepo) CreateWithItems(_ context.Context, q *repository.QuoteRecord, items []repository.QuoteItem) error {
	cp := *q
	f.records[q.ID] = &cp
	f.items[q.ID] = items
	return nil
}

func (f *fakeRepo) UpdateWithItems(_ context.Context, q *repository.QuoteRecord, items []repository.QuoteItem) error {
	if _, ok := f.records[q.ID]; !ok {
		return apperr.NotFound("quote record not found")
	}
	cp := *q
	f.records[q.ID] = &cp
	f.items[q.ID] = items
	return nil
}

func (f *fakeRepo) MarkIssued(_ context.Context, id uuid.UUID, providerQuoteID, policyNumber string, total int64) error {
	q, ok := f.records[id]
	if !ok {
		return apperr.NotFound("quote record not found")
	}
	q.Status = "issued"
	q.ProviderQuoteID = &providerQuoteID
	q.PolicyNumber = &policyNumber
	q.TotalCents = total
	return nil
}

func (f *fakeRepo) CreatePayment(_ context.Context, p *repository.Payment) error {
	if f.paymentErr != nil {
		return f.paymentErr
	}
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.QuoteRecord, error) {
	q, ok := f.records[id]
	if !ok {
		return nil, apperr.NotFound("quote record not found")
	}
	cp := *q
	return &cp, nil
}

func sampleDraft() transport.Draft {
	return transport.Draft{
		SessionID:        uuid.New(),
		Destination:      "Spain",
		ResidenceCountry: "United Kingdom",
		PolicyType:       "Single Trip",
		StartDate:        time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		Travelers:        []transport.TravelerSnapshot{{FirstName: "Ana", LastName: "Diaz", Age: 34}},
		HolderEmail:      " Ana@Example.com ",
		QuoteName:        "Essential",
		Currency:         "gbp",
		Lines: []transport.DraftLine{
			{Kind: transport.LineKindBase, Description: "Essential", PriceCents: 4500, PriceKnown: true},
			{Kind: transport.LineKindAddon, Description: "Ski cover", AlterationID: "7", PriceCents: 730, PriceKnown: true},
		},
	}
}

func TestSaveDraftCreatesThenUpdates(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Discard())
	ctx := context.Background()

	draft := sampleDraft()
	saved, err := svc.SaveDraft(ctx, draft)
	require.NoError(t, err)
	require.Equal(t, int64(5230), saved.TotalCents)
	require.Equal(t, "ana@example.com", repo.records[saved.ID].HolderEmail)
	require.Equal(t, "GBP", repo.records[saved.ID].Currency)
	require.Len(t, repo.items[saved.ID], 2)
	require.Equal(t, "7", *repo.items[saved.ID][1].AlterationID)

	draft.ID = &saved.ID
	draft.Lines = draft.Lines[:1]
	again, err := svc.SaveDraft(ctx, draft)
	require.NoError(t, err)
	require.Equal(t, saved.ID, again.ID)
	require.Equal(t, saved.Reference, again.Reference)
	require.Equal(t, int64(4500), again.TotalCents)
	require.Len(t, repo.items[saved.ID], 1)
}

func TestSaveDraftRejectsIssuedRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Discard())
	ctx := context.Background()

	saved, err := svc.SaveDraft(ctx, sampleDraft())
	require.NoError(t, err)
	require.NoError(t, svc.MarkIssued(ctx, saved.ID, "Q-1", "POL-1", 5230))

	draft := sampleDraft()
	draft.ID = &saved.ID
	_, err = svc.SaveDraft(ctx, draft)
	require.Equal(t, apperr.KindConflict, apperr.GetKind(err))
}

func TestSaveDraftRequiresBaseLine(t *testing.T) {
	draft := sampleDraft()
	draft.Lines = draft.Lines[1:]

	_, err := New(newFakeRepo(), logger.Discard()).SaveDraft(context.Background(), draft)
	require.Equal(t, apperr.KindValidation, apperr.GetKind(err))
}

func TestRecordPayment(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Discard())

	err := svc.RecordPayment(context.Background(), transport.PaymentRecord{
		QuoteID: uuid.New(), AmountCents: 5230, Currency: "eur", CardholderName: "Ana Diaz", CardLast4: "4242", PolicyNumber: "POL-1",
	})
	require.NoError(t, err)
	require.Len(t, repo.payments, 1)
	require.Equal(t, "EUR", repo.payments[0].Currency)

	err = svc.RecordPayment(context.Background(), transport.PaymentRecord{QuoteID: uuid.New(), CardLast4: "42"})
	require.Equal(t, apperr.KindValidation, apperr.GetKind(err))
}

func TestStorageFailuresAreLoggedAndDomainErrorsAreNot(t *testing.T) {
	var buf bytes.Buffer
	repo := newFakeRepo()
	repo.paymentErr = errors.New("connection reset")
	svc := New(repo, logger.NewWithWriter("production", &buf))

	err := svc.RecordPayment(context.Background(), transport.PaymentRecord{QuoteID: uuid.New(), CardLast4: "4242"})
	require.ErrorIs(t, err, repo.paymentErr)
	require.Contains(t, buf.String(), `"msg":"database_error"`)
	require.Contains(t, buf.String(), `"operation":"payments.create"`)

	buf.Reset()
	_, err = svc.GetByID(context.Background(), uuid.New())
	require.Equal(t, apperr.KindNotFound, apperr.GetKind(err))
	require.Empty(t, buf.String())
}
