package documents

import (
	"context"
	"errors"

	"travel_portal_backend/platform/logger"
)

// HTMLConverter turns an HTML page into a PDF.
type HTMLConverter interface {
	ConvertHTML(ctx context.Context, indexHTML []byte, opts ConvertOpts) ([]byte, error)
}

// Renderer produces policy summaries. It prefers the Gotenberg conversion
// of the print view, then the maroto layout, then the raw print view.
type Renderer struct {
	converter HTMLConverter
	log       *logger.Logger
}

// NewRenderer creates a renderer. converter may be nil.
func NewRenderer(converter HTMLConverter, log *logger.Logger) *Renderer {
	return &Renderer{converter: converter, log: log}
}

// RenderSummary renders data, degrading through the available formats.
func (r *Renderer) RenderSummary(ctx context.Context, data SummaryData) (*Document, error) {
	html, htmlErr := RenderSummaryHTML(data)

	if r.converter != nil && htmlErr == nil {
		pdf, err := r.converter.ConvertHTML(ctx, html, SummaryOpts())
		if err == nil {
			return &Document{Content: pdf, ContentType: ContentTypePDF, Filename: summaryFilename(data, "pdf")}, nil
		}
		r.log.WithContext(ctx).Warn("gotenberg conversion failed, using built-in PDF layout", "error", err)
	}

	pdf, err := RenderSummaryPDF(data)
	if err == nil {
		return &Document{Content: pdf, ContentType: ContentTypePDF, Filename: summaryFilename(data, "pdf")}, nil
	}
	r.log.WithContext(ctx).Warn("PDF rendering failed, serving print view", "error", err)

	if htmlErr != nil {
		return nil, errors.Join(err, htmlErr)
	}
	return &Document{Content: html, ContentType: ContentTypeHTML, Filename: summaryFilename(data, "html")}, nil
}
