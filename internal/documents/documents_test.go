package documents

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"travel_portal_backend/platform/logger"
)

func sampleSummary() SummaryData {
	return SummaryData{
		PolicyNumber:     "POL-2026/0042",
		QuoteName:        "Essential",
		PolicyTypeName:   "Single Trip",
		Destination:      "Europe",
		ResidenceCountry: "Greece",
		StartDate:        "2026-01-10",
		EndDate:          "2026-01-20",
		HolderName:       "Eleni Papadopoulou",
		HolderEmail:      "eleni@example.com",
		Travelers:        []SummaryTraveler{{Name: "Eleni Papadopoulou", Age: 41}},
		BasePriceCents:   4500,
		Addons:           []SummaryLine{{Name: "Winter sports", PriceCents: 730, PriceKnown: true}},
		TotalCents:       5230,
		Currency:         "EUR",
		IssuedAt:         time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		DocumentsURL:     "https://insure.example.com/documents",
	}
}

type stubConverter struct {
	out   []byte
	err   error
	calls int
}

func (s *stubConverter) ConvertHTML(_ context.Context, html []byte, _ ConvertOpts) ([]byte, error) {
	s.calls++
	if !bytes.Contains(html, []byte("POL-2026/0042")) {
		return nil, errors.New("unexpected html")
	}
	return s.out, s.err
}

func TestRenderSummaryHTML(t *testing.T) {
	html, err := RenderSummaryHTML(sampleSummary())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(html)
	for _, want := range []string{"Policy summary", "POL-2026/0042", "€ 52.30", "€ 7.30", "Winter sports", "legally binding"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in print view", want)
		}
	}
}

func TestRenderSummaryHTMLEscapesInput(t *testing.T) {
	data := sampleSummary()
	data.HolderName = "<script>alert(1)</script>"

	html, err := RenderSummaryHTML(data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Fatal("holder name was not escaped")
	}
}

func TestRenderSummaryPDF(t *testing.T) {
	pdf, err := RenderSummaryPDF(sampleSummary())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestRendererPrefersConverter(t *testing.T) {
	conv := &stubConverter{out: []byte("%PDF-gotenberg")}
	doc, err := NewRenderer(conv, logger.Discard()).RenderSummary(context.Background(), sampleSummary())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if conv.calls != 1 || string(doc.Content) != "%PDF-gotenberg" {
		t.Fatalf("expected converter output, got %q", doc.Content)
	}
	if doc.Filename != "policy-summary-POL-2026-0042.pdf" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
}

func TestRendererFallsBackToBuiltInPDF(t *testing.T) {
	conv := &stubConverter{err: errors.New("gotenberg down")}
	doc, err := NewRenderer(conv, logger.Discard()).RenderSummary(context.Background(), sampleSummary())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !doc.IsPDF() || !bytes.HasPrefix(doc.Content, []byte("%PDF")) {
		t.Fatalf("expected maroto PDF, got %s", doc.ContentType)
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		formatMoney(5230, "EUR"): "€ 52.30",
		formatMoney(5, "GBP"):    "£ 0.05",
		formatMoney(-150, "CHF"): "-CHF 1.50",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
