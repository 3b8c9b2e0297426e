// Package documents renders the locally generated policy summary: a PDF
// through Gotenberg or maroto, with an HTML print view as last resort. The
// summary is a convenience copy and never replaces the provider's
// certificate or policy wording.
package documents

import (
	"fmt"
	"strings"
	"time"
)

// Content types of rendered documents.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// SummaryTraveler is one insured person on the summary.
type SummaryTraveler struct {
	Name string
	Age  int
}

// SummaryLine is an attached add-on. PriceKnown is false when only the
// re-priced total is authoritative.
type SummaryLine struct {
	Name       string
	PriceCents int64
	PriceKnown bool
}

// SummaryData holds everything printed on a policy summary.
type SummaryData struct {
	PolicyNumber     string
	QuoteName        string
	PolicyTypeName   string
	Destination      string
	ResidenceCountry string
	StartDate        string
	EndDate          string
	HolderName       string
	HolderEmail      string
	Travelers        []SummaryTraveler
	BasePriceCents   int64
	Addons           []SummaryLine
	TotalCents       int64
	Currency         string
	IssuedAt         time.Time
	// DocumentsURL is encoded as a QR code when set.
	DocumentsURL string
}

// Document is a rendered artifact ready for download.
type Document struct {
	Content     []byte
	ContentType string
	Filename    string
}

// IsPDF reports whether the document is a PDF.
func (d *Document) IsPDF() bool {
	return strings.HasPrefix(d.ContentType, ContentTypePDF)
}

func summaryFilename(data SummaryData, ext string) string {
	ref := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, data.PolicyNumber)
	if ref == "" {
		ref = "draft"
	}
	return fmt.Sprintf("policy-summary-%s.%s", ref, ext)
}

func formatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	symbol := currency + " "
	switch strings.ToUpper(currency) {
	case "EUR":
		symbol = "€ "
	case "GBP":
		symbol = "£ "
	case "USD":
		symbol = "$ "
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, cents/100, cents%100)
}

func joinParts(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
