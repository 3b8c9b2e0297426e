// Package service orchestrates the quote wizard: phase transitions, add-on
// re-pricing and policy finalization.
package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"travel_portal_backend/internal/adapters/storage"
	"travel_portal_backend/internal/documents"
	"travel_portal_backend/internal/events"
	pricingservice "travel_portal_backend/internal/pricing/service"
	pricingtransport "travel_portal_backend/internal/pricing/transport"
	quotestransport "travel_portal_backend/internal/quotes/transport"
	refdatatransport "travel_portal_backend/internal/refdata/transport"
	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/internal/wizard/repository"
	"travel_portal_backend/platform/apperr"
	"travel_portal_backend/platform/logger"
	"travel_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// Pricing is the quoting entry point the wizard depends on.
type Pricing interface {
	Quotes(ctx context.Context, req pricingtransport.QuoteRequest) pricingservice.QuoteList
	FreshQuotes(ctx context.Context, req pricingtransport.QuoteRequest) ([]pricingtransport.QuoteOption, error)
	Reprice(ctx context.Context, quoteID string, alterationIDs []string, req pricingtransport.QuoteRequest) (*pricingtransport.QuoteOption, error)
	Finalize(ctx context.Context, quoteID string, answers []pricingtransport.ScreeningAnswer, req pricingtransport.QuoteRequest) (*pricingtransport.FinalizeResult, error)
	EmailDocuments(ctx context.Context, policyID, email string) bool
	ScreeningQuestions(ctx context.Context, quoteID string) ([]pricingtransport.ScreeningQuestion, error)
}

// RefData resolves provider policy-type names and their add-on catalogs.
type RefData interface {
	AddonCatalog(ctx context.Context, providerName string) refdatatransport.AddonCatalog
	NormalizePolicyTypeName(raw string) (string, bool)
}

// QuoteRecorder persists quote records and payments.
type QuoteRecorder interface {
	SaveDraft(ctx context.Context, draft quotestransport.Draft) (*quotestransport.SavedDraft, error)
	MarkIssued(ctx context.Context, id uuid.UUID, providerQuoteID, policyNumber string, totalCents int64) error
	RecordPayment(ctx context.Context, rec quotestransport.PaymentRecord) error
}

// SummaryRenderer renders the local policy summary.
type SummaryRenderer interface {
	RenderSummary(ctx context.Context, data documents.SummaryData) (*documents.Document, error)
}

// DocumentStorage stores rendered summaries and hands out download links.
type DocumentStorage interface {
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error)
}

// EmailChecker validates email shape.
type EmailChecker = domain.EmailChecker

// Options are the business settings of the wizard.
type Options struct {
	SessionTTL   time.Duration
	VATCountries []string
	// AppBaseURL is the public URL of the web app; it builds the documents
	// link printed on summaries.
	AppBaseURL string
	// SummaryBucket is the storage bucket of rendered summaries.
	SummaryBucket string
}

const (
	// processingTTL is how long an abandoned add-on marker blocks new changes.
	processingTTL = 2 * time.Minute

	placeholderAge   = 30
	placeholderEmail = "quotes@placeholder.invalid"
	placeholderPhone = "+300000000000"
)

// Service provides the wizard operations.
type Service struct {
	store    repository.Store
	pricing  Pricing
	refdata  RefData
	records  QuoteRecorder
	emails   EmailChecker
	log      *logger.Logger
	opts     Options
	renderer SummaryRenderer
	storage  DocumentStorage
	bus      events.Bus
	now      func() time.Time
}

// New creates a wizard service.
func New(store repository.Store, pricing Pricing, refdata RefData, records QuoteRecorder, emails EmailChecker, log *logger.Logger, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	return &Service{
		store:    store,
		pricing:  pricing,
		refdata:  refdata,
		records:  records,
		emails:   emails,
		log:      log,
		opts:     opts,
		renderer: documents.NewRenderer(nil, log),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetEventBus injects the event bus used to publish wizard events.
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

// SetRenderer injects the policy summary renderer.
func (s *Service) SetRenderer(r SummaryRenderer) {
	s.renderer = r
}

// SetDocumentStorage injects object storage for rendered summaries.
func (s *Service) SetDocumentStorage(st DocumentStorage) {
	s.storage = st
}

// Violations lists the unmet requirements of the session's current phase.
func (s *Service) Violations(st *domain.State) []domain.FieldError {
	return domain.Violations(st, s.emails)
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*domain.State, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return st, nil
}

func (s *Service) save(ctx context.Context, st *domain.State) error {
	now := s.now()
	st.UpdatedAt = now
	st.ExpiresAt = now.Add(s.opts.SessionTTL)
	if err := s.store.Save(ctx, st); err != nil {
		return storeError(err)
	}
	return nil
}

// mutate runs fn on the locked session and saves the result. Nothing is
// saved when fn fails.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(st *domain.State) error) (*domain.State, error) {
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	defer unlock()

	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if err := s.save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("wizard session not found or expired")
	case errors.Is(err, repository.ErrLocked):
		return apperr.Conflict("the session is busy, please retry")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return apperr.Wrap(apperr.KindInternal, "session storage failed", err)
	}
}

func errFinalized() error {
	return apperr.Conflict("the policy has already been issued for this session")
}

// pricingRequest builds the provider request from the session. With
// placeholders set, unfilled ages and the holder contact are substituted so
// early phases can be priced.
func (s *Service) pricingRequest(st *domain.State, placeholders bool) pricingtransport.QuoteRequest {
	t := st.Trip
	req := pricingtransport.QuoteRequest{
		Trip: pricingtransport.Trip{
			Destination:      t.Destination,
			ResidenceCountry: t.ResidenceCountry,
			PolicyType:       t.PolicyType,
			StartDate:        t.StartDate,
			EndDate:          t.EndDate,
		},
		Travelers: make([]pricingtransport.Traveler, 0, len(st.Travelers)),
	}

	start, _, _ := t.Dates()
	if start.IsZero() {
		start = s.now()
	}
	for _, tr := range st.Travelers {
		age, ok := tr.AgeOn(start)
		if !ok && placeholders {
			age = placeholderAge
		}
		req.Travelers = append(req.Travelers, pricingtransport.Traveler{
			Title:       tr.Title,
			FirstName:   tr.FirstName,
			LastName:    tr.LastName,
			DateOfBirth: tr.DateOfBirth,
			Age:         age,
			Nationality: tr.Nationality,
			TaxID:       tr.TaxID,
		})
	}

	holder := st.Holder()
	req.Contact.Email = strings.TrimSpace(holder.Email)
	req.Contact.Phone = phone.NormalizeE164ForRegion(holder.Phone, phone.RegionForCountry(t.ResidenceCountry))
	if placeholders {
		if req.Contact.Email == "" || !s.emails.IsEmail(req.Contact.Email) {
			req.Contact.Email = placeholderEmail
		}
		if req.Contact.Phone == "" {
			req.Contact.Phone = placeholderPhone
		}
	}
	return req
}

func toAddOn(a refdatatransport.Addon) domain.AddOn {
	return domain.AddOn{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		PriceCents:   a.PriceCents,
		PriceKnown:   a.PriceCents > 0,
		Currency:     a.Currency,
		Icon:         a.Icon,
		Category:     a.Category,
		AlterationID: a.AlterationID,
	}
}

func addNotice(st *domain.State, notice string) {
	for _, n := range st.Notices {
		if n == notice {
			return
		}
	}
	st.Notices = append(st.Notices, notice)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}
