// Package client provides the SOAP client for the insurance quoting provider.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"travel_portal_backend/internal/pricing"
	"travel_portal_backend/internal/pricing/transport"
	"travel_portal_backend/platform/config"
	"travel_portal_backend/platform/logger"

	"github.com/beevik/etree"
)

const (
	opGetQuotes               = "GetQuotes"
	opGetQuotesWithAlteration = "GetQuotesWithAlterations"
	opSaveIssuedPolicy        = "SaveIssuedPolicy"
	opGetScreeningQuestions   = "GetScreeningQuestions"
	opEmailDocuments          = "EmailDocuments"

	maxResponseBytes = 8 << 20
)

// Client talks SOAP 1.1 to the quoting provider.
type Client struct {
	httpClient *http.Client
	endpoint   string
	namespace  string
	creds      credentials
	log        *logger.Logger
}

var _ pricing.Provider = (*Client)(nil)

// New creates a provider client from configuration.
func New(cfg config.ProviderConfig, log *logger.Logger) *Client {
	timeout := cfg.GetProviderTimeout()
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	namespace := cfg.GetProviderNamespace()
	if !strings.HasSuffix(namespace, "/") {
		namespace += "/"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.GetProviderEndpoint(),
		namespace:  namespace,
		creds: credentials{
			username:  cfg.GetProviderUsername(),
			password:  cfg.GetProviderPassword(),
			agentCode: cfg.GetProviderAgentCode(),
		},
		log: log,
	}
}

// GetQuotes prices a trip for the given travelers.
func (c *Client) GetQuotes(ctx context.Context, req transport.QuoteRequest) ([]transport.QuoteOption, error) {
	doc, op := newEnvelope(c.namespace, opGetQuotes, c.creds)
	writeTrip(op, req.Trip)
	writeTravelers(op, req.Travelers)
	writeContact(op, req.Contact)

	resp, err := c.call(ctx, opGetQuotes, doc)
	if err != nil {
		return nil, err
	}
	return c.validQuotes(opGetQuotes, resp), nil
}

// RepriceWithAlterations re-prices quoteID with the full alteration id list.
func (c *Client) RepriceWithAlterations(ctx context.Context, quoteID, alterationIDs string, req transport.QuoteRequest) ([]transport.QuoteOption, error) {
	doc, op := newEnvelope(c.namespace, opGetQuotesWithAlteration, c.creds)
	op.CreateElement("QuoteId").SetText(quoteID)
	op.CreateElement("AlterationIds").SetText(alterationIDs)
	writeTravelers(op, req.Travelers)
	writeContact(op, req.Contact)

	resp, err := c.call(ctx, opGetQuotesWithAlteration, doc)
	if err != nil {
		return nil, err
	}
	return c.validQuotes(opGetQuotesWithAlteration, resp), nil
}

// FinalizePolicy saves the issued policy for quoteID.
func (c *Client) FinalizePolicy(ctx context.Context, quoteID string, answers []transport.ScreeningAnswer, req transport.QuoteRequest) (*transport.FinalizeResult, error) {
	doc, op := newEnvelope(c.namespace, opSaveIssuedPolicy, c.creds)
	op.CreateElement("QuoteId").SetText(quoteID)
	list := op.CreateElement("ScreeningAnswers")
	for _, a := range answers {
		el := list.CreateElement("Answer")
		el.CreateElement("QuestionId").SetText(a.QuestionID)
		el.CreateElement("Value").SetText(strconv.FormatBool(a.Answer))
	}
	writeTravelers(op, req.Travelers)
	writeContact(op, req.Contact)

	resp, err := c.call(ctx, opSaveIssuedPolicy, doc)
	if err != nil {
		return nil, err
	}
	return parseFinalize(resp), nil
}

// EmailDocuments asks the provider to send the policy documents to email.
func (c *Client) EmailDocuments(ctx context.Context, policyID, email string) (*transport.EmailResult, error) {
	doc, op := newEnvelope(c.namespace, opEmailDocuments, c.creds)
	op.CreateElement("PolicyId").SetText(policyID)
	op.CreateElement("EmailAddress").SetText(email)

	resp, err := c.call(ctx, opEmailDocuments, doc)
	if err != nil {
		return nil, err
	}
	return parseEmail(resp), nil
}

// GetScreeningQuestions lists the disclosure questions for quoteID.
func (c *Client) GetScreeningQuestions(ctx context.Context, quoteID string) ([]transport.ScreeningQuestion, error) {
	doc, op := newEnvelope(c.namespace, opGetScreeningQuestions, c.creds)
	op.CreateElement("QuoteId").SetText(quoteID)

	resp, err := c.call(ctx, opGetScreeningQuestions, doc)
	if err != nil {
		return nil, err
	}
	return parseScreening(resp), nil
}

func (c *Client) validQuotes(op string, doc *etree.Document) []transport.QuoteOption {
	parsed := parseQuotes(doc)
	out := make([]transport.QuoteOption, 0, len(parsed))
	for _, p := range parsed {
		if p.priceErr != nil {
			c.log.Warn("dropping quote with unreadable price", "op", op, "scheme", p.option.SchemeID, "error", p.priceErr)
			continue
		}
		if p.option.PriceCents < 0 {
			c.log.Warn("dropping quote with negative price", "op", op, "scheme", p.option.SchemeID, "price_cents", p.option.PriceCents)
			continue
		}
		out = append(out, p.option)
	}
	return out
}

func (c *Client) call(ctx context.Context, op string, doc *etree.Document) (*etree.Document, error) {
	payload, err := doc.WriteToBytes()
	if err != nil {
		return nil, &pricing.ProviderError{Op: op, Err: fmt.Errorf("encode envelope: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &pricing.ProviderError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+c.namespace+op+`"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("provider request failed", "op", op, "error", err)
		return nil, &pricing.ProviderError{Op: op, Err: errors.Join(pricing.ErrProviderUnavailable, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &pricing.ProviderError{Op: op, Err: errors.Join(pricing.ErrProviderUnavailable, err)}
	}

	out := etree.NewDocument()
	parseErr := out.ReadFromBytes(body)
	if parseErr == nil {
		if msg, ok := faultString(out); ok {
			c.log.Warn("provider returned fault", "op", op, "fault", msg)
			return nil, &pricing.ProviderError{Op: op, Err: fmt.Errorf("%w: %s", pricing.ErrProviderRejected, msg)}
		}
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("provider upstream error", "op", op, "status", resp.StatusCode)
		return nil, &pricing.ProviderError{Op: op, Err: fmt.Errorf("%w: status %d", pricing.ErrProviderUnavailable, resp.StatusCode)}
	}
	if parseErr != nil {
		return nil, &pricing.ProviderError{Op: op, Err: fmt.Errorf("%w: decode response: %v", pricing.ErrProviderUnavailable, parseErr)}
	}

	return out, nil
}
