package service

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"travel_portal_backend/internal/documents"
	"travel_portal_backend/internal/wizard/domain"
	"travel_portal_backend/internal/wizard/transport"
	"travel_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Documents lists the documents of the issued policy. When an authoritative
// document is missing, the locally rendered summary is offered too.
func (s *Service) Documents(ctx context.Context, id uuid.UUID) (*transport.DocumentsResponse, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.Finalized() {
		return nil, apperr.Conflict("the policy has not been issued yet")
	}

	resp := &transport.DocumentsResponse{
		PolicyNumber:     st.PolicyNumber,
		Documents:        st.Documents,
		Emailed:          st.DocumentsEmailed,
		SummaryAvailable: summaryNeeded(st),
	}
	if resp.SummaryAvailable {
		resp.SummaryURL = s.summaryURL(ctx, st)
	}
	return resp, nil
}

// SummaryDocument renders the policy summary for download.
func (s *Service) SummaryDocument(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.Finalized() {
		return nil, apperr.Conflict("the policy has not been issued yet")
	}
	if !summaryNeeded(st) {
		return nil, apperr.NotFound("the insurer's documents are available, no summary is generated")
	}
	doc, err := s.renderer.RenderSummary(ctx, s.summaryData(st))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to render policy summary", err)
	}
	return doc, nil
}

// summaryURL returns a presigned link to the stored summary, uploading it
// on first use. Without storage, or when storage fails, the API download
// route is returned.
func (s *Service) summaryURL(ctx context.Context, st *domain.State) string {
	apiPath := "/api/v1/wizard/sessions/" + st.SessionID.String() + "/documents/summary"
	if s.storage == nil || s.opts.SummaryBucket == "" {
		return apiPath
	}
	log := s.log.WithContext(ctx)

	key := st.SummaryFileKey
	if key == "" {
		doc, err := s.renderer.RenderSummary(ctx, s.summaryData(st))
		if err != nil {
			log.Warn("failed to render policy summary for storage", "error", err)
			return apiPath
		}
		key, err = s.storage.UploadFile(ctx, s.opts.SummaryBucket, "policies/"+st.SessionID.String(),
			doc.Filename, doc.ContentType, bytes.NewReader(doc.Content), int64(len(doc.Content)))
		if err != nil {
			log.Warn("failed to upload policy summary", "error", err)
			return apiPath
		}
		if _, err := s.mutate(ctx, st.SessionID, func(locked *domain.State) error {
			locked.SummaryFileKey = key
			return nil
		}); err != nil {
			log.Warn("failed to remember policy summary key", "error", err)
		}
	}

	link, err := s.storage.GenerateDownloadURL(ctx, s.opts.SummaryBucket, key)
	if err != nil {
		log.Warn("failed to presign policy summary", "error", err)
		return apiPath
	}
	return link.URL
}

func summaryNeeded(st *domain.State) bool {
	d := st.Documents
	return d.SummaryOfCover == "" || d.PolicyWording == "" || d.Certificate == ""
}

func (s *Service) summaryData(st *domain.State) documents.SummaryData {
	start, _, _ := st.Trip.Dates()
	holder := st.Holder()

	data := documents.SummaryData{
		PolicyNumber:     st.PolicyNumber,
		Destination:      st.Trip.Destination,
		ResidenceCountry: st.Trip.ResidenceCountry,
		StartDate:        st.Trip.StartDate,
		EndDate:          st.Trip.EndDate,
		HolderName:       strings.TrimSpace(holder.FirstName + " " + holder.LastName),
		HolderEmail:      holder.Email,
		IssuedAt:         st.UpdatedAt,
	}
	for _, t := range st.Travelers {
		age, _ := t.AgeOn(start)
		data.Travelers = append(data.Travelers, documents.SummaryTraveler{
			Name: strings.TrimSpace(t.FirstName + " " + t.LastName),
			Age:  age,
		})
	}
	if st.Selected != nil {
		data.QuoteName = st.Selected.Name
		data.PolicyTypeName = st.Selected.PolicyTypeName
		data.BasePriceCents = st.Selected.PriceCents
	}
	for _, a := range st.Attached {
		data.Addons = append(data.Addons, documents.SummaryLine{
			Name:       a.Name,
			PriceCents: a.PriceCents,
			PriceKnown: a.PriceKnown && st.AuthoritativeTotalCents == nil,
		})
	}
	data.TotalCents, data.Currency = domain.DisplayedTotal(st)
	if base := strings.TrimRight(s.opts.AppBaseURL, "/"); base != "" && st.PolicyNumber != "" {
		data.DocumentsURL = base + "/documents/" + url.PathEscape(st.PolicyNumber)
	}
	return data
}
