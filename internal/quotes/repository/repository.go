package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travel_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// QuoteRecord is the database model of a wizard quote submission.
type QuoteRecord struct {
	ID               uuid.UUID       `db:"id"`
	SessionID        uuid.UUID       `db:"session_id"`
	Reference        string          `db:"reference"`
	Status           string          `db:"status"`
	Destination      string          `db:"destination"`
	ResidenceCountry string          `db:"residence_country"`
	PolicyType       string          `db:"policy_type"`
	StartDate        time.Time       `db:"start_date"`
	EndDate          time.Time       `db:"end_date"`
	TravelerCount    int             `db:"traveler_count"`
	Travelers        json.RawMessage `db:"travelers"`
	HolderEmail      string          `db:"holder_email"`
	QuoteName        string          `db:"quote_name"`
	SchemeID         string          `db:"scheme_id"`
	PolicyTypeName   string          `db:"policy_type_name"`
	ProviderQuoteID  *string         `db:"provider_quote_id"`
	PolicyNumber     *string         `db:"policy_number"`
	TotalCents       int64           `db:"total_cents"`
	Currency         string          `db:"currency"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// QuoteItem is one priced line of a quote record: the base premium or an add-on.
type QuoteItem struct {
	ID           uuid.UUID `db:"id"`
	QuoteID      uuid.UUID `db:"quote_id"`
	Kind         string    `db:"kind"`
	Description  string    `db:"description"`
	AlterationID *string   `db:"alteration_id"`
	PriceCents   int64     `db:"price_cents"`
	PriceIsKnown bool      `db:"price_is_known"`
	SortOrder    int       `db:"sort_order"`
	CreatedAt    time.Time `db:"created_at"`
}

// Payment is the database model of a recorded policy payment. Only the last
// four card digits are stored.
type Payment struct {
	ID             uuid.UUID `db:"id"`
	QuoteID        uuid.UUID `db:"quote_id"`
	AmountCents    int64     `db:"amount_cents"`
	Currency       string    `db:"currency"`
	CardholderName string    `db:"cardholder_name"`
	CardLast4      string    `db:"card_last4"`
	PolicyNumber   string    `db:"policy_number"`
	CreatedAt      time.Time `db:"created_at"`
}

// ── Repository ────────────────────────────────────────────────────────────────

const quoteNotFoundMsg = "quote record not found"

// Repository provides database operations for quote records and payments.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quote record repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NextReference atomically generates the next yearly quote reference.
func (r *Repository) NextReference(ctx context.Context, now time.Time) (string, error) {
	var nextNum int
	query := `
		INSERT INTO travel_quote_counters (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_number = travel_quote_counters.last_number + 1
		RETURNING last_number`

	if err := r.pool.QueryRow(ctx, query, now.Year()).Scan(&nextNum); err != nil {
		return "", fmt.Errorf("failed to generate quote reference: %w", err)
	}
	return fmt.Sprintf("TQ-%d-%05d", now.Year(), nextNum), nil
}

// CreateWithItems inserts a quote record and its lines in a single transaction.
func (r *Repository) CreateWithItems(ctx context.Context, quote *QuoteRecord, items []QuoteItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO travel_quotes (
			id, session_id, reference, status, destination, residence_country, policy_type,
			start_date, end_date, traveler_count, travelers, holder_email,
			quote_name, scheme_id, policy_type_name, total_cents, currency, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	if _, err := tx.Exec(ctx, query,
		quote.ID, quote.SessionID, quote.Reference, quote.Status,
		quote.Destination, quote.ResidenceCountry, quote.PolicyType,
		quote.StartDate, quote.EndDate, quote.TravelerCount, quote.Travelers, quote.HolderEmail,
		quote.QuoteName, quote.SchemeID, quote.PolicyTypeName, quote.TotalCents, quote.Currency,
		quote.CreatedAt, quote.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert quote record: %w", err)
	}

	if err := r.insertItems(ctx, tx, items); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateWithItems rewrites a draft quote record and replaces its lines.
func (r *Repository) UpdateWithItems(ctx context.Context, quote *QuoteRecord, items []QuoteItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE travel_quotes SET
			destination = $2, residence_country = $3, policy_type = $4,
			start_date = $5, end_date = $6, traveler_count = $7, travelers = $8, holder_email = $9,
			quote_name = $10, scheme_id = $11, policy_type_name = $12,
			total_cents = $13, currency = $14, updated_at = $15
		WHERE id = $1 AND status = 'draft'`

	result, err := tx.Exec(ctx, query,
		quote.ID, quote.Destination, quote.ResidenceCountry, quote.PolicyType,
		quote.StartDate, quote.EndDate, quote.TravelerCount, quote.Travelers, quote.HolderEmail,
		quote.QuoteName, quote.SchemeID, quote.PolicyTypeName,
		quote.TotalCents, quote.Currency, quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM travel_quote_items WHERE quote_id = $1`, quote.ID); err != nil {
		return fmt.Errorf("failed to delete old quote items: %w", err)
	}
	if err := r.insertItems(ctx, tx, items); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) insertItems(ctx context.Context, tx pgx.Tx, items []QuoteItem) error {
	query := `
		INSERT INTO travel_quote_items (
			id, quote_id, kind, description, alteration_id, price_cents, price_is_known, sort_order, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, item := range items {
		if _, err := tx.Exec(ctx, query,
			item.ID, item.QuoteID, item.Kind, item.Description, item.AlterationID,
			item.PriceCents, item.PriceIsKnown, item.SortOrder, item.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert quote item: %w", err)
		}
	}
	return nil
}

// MarkIssued attaches the provider quote id and policy number to a record.
func (r *Repository) MarkIssued(ctx context.Context, id uuid.UUID, providerQuoteID, policyNumber string, totalCents int64) error {
	query := `
		UPDATE travel_quotes SET
			status = 'issued', provider_quote_id = $2, policy_number = $3, total_cents = $4, updated_at = $5
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, providerQuoteID, policyNumber, totalCents, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark quote record issued: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

// CreatePayment inserts a payment row.
func (r *Repository) CreatePayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO travel_payments (
			id, quote_id, amount_cents, currency, cardholder_name, card_last4, policy_number, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.pool.Exec(ctx, query,
		p.ID, p.QuoteID, p.AmountCents, p.Currency, p.CardholderName, p.CardLast4, p.PolicyNumber, p.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a quote record.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*QuoteRecord, error) {
	var q QuoteRecord
	query := `
		SELECT id, session_id, reference, status, destination, residence_country, policy_type,
			start_date, end_date, traveler_count, travelers, holder_email,
			quote_name, scheme_id, policy_type_name, provider_quote_id, policy_number,
			total_cents, currency, created_at, updated_at
		FROM travel_quotes WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.SessionID, &q.Reference, &q.Status, &q.Destination, &q.ResidenceCountry, &q.PolicyType,
		&q.StartDate, &q.EndDate, &q.TravelerCount, &q.Travelers, &q.HolderEmail,
		&q.QuoteName, &q.SchemeID, &q.PolicyTypeName, &q.ProviderQuoteID, &q.PolicyNumber,
		&q.TotalCents, &q.Currency, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get quote record: %w", err)
	}
	return &q, nil
}
