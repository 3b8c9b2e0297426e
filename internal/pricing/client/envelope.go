package client

import (
	"fmt"
	"strconv"
	"strings"

	"travel_portal_backend/internal/pricing/transport"

	"github.com/beevik/etree"
)

const soapEnvNS = "http://schemas.xmlsoap.org/soap/envelope/"

// credentials are sent in every operation body.
type credentials struct {
	username  string
	password  string
	agentCode string
}

// newEnvelope returns a SOAP 1.1 document and the operation element inside its body.
func newEnvelope(namespace, operation string, creds credentials) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	env := doc.CreateElement("soap:Envelope")
	env.CreateAttr("xmlns:soap", soapEnvNS)
	body := env.CreateElement("soap:Body")

	op := body.CreateElement(operation)
	op.CreateAttr("xmlns", namespace)

	auth := op.CreateElement("Credentials")
	auth.CreateElement("Username").SetText(creds.username)
	auth.CreateElement("Password").SetText(creds.password)
	auth.CreateElement("AgentCode").SetText(creds.agentCode)

	return doc, op
}

func writeTrip(parent *etree.Element, trip transport.Trip) {
	el := parent.CreateElement("Trip")
	el.CreateElement("Destination").SetText(trip.Destination)
	el.CreateElement("CountryOfResidence").SetText(trip.ResidenceCountry)
	el.CreateElement("PolicyType").SetText(trip.PolicyType)
	el.CreateElement("StartDate").SetText(trip.StartDate)
	el.CreateElement("EndDate").SetText(trip.EndDate)
}

func writeTravelers(parent *etree.Element, travelers []transport.Traveler) {
	list := parent.CreateElement("Travellers")
	for _, tr := range travelers {
		el := list.CreateElement("Traveller")
		el.CreateElement("Title").SetText(tr.Title)
		el.CreateElement("FirstName").SetText(tr.FirstName)
		el.CreateElement("LastName").SetText(tr.LastName)
		if tr.DateOfBirth != "" {
			el.CreateElement("DateOfBirth").SetText(tr.DateOfBirth)
		}
		el.CreateElement("Age").SetText(strconv.Itoa(tr.Age))
		el.CreateElement("Nationality").SetText(tr.Nationality)
		if tr.TaxID != "" {
			el.CreateElement("TaxId").SetText(tr.TaxID)
		}
	}
}

func writeContact(parent *etree.Element, contact transport.Contact) {
	el := parent.CreateElement("Contact")
	el.CreateElement("Email").SetText(contact.Email)
	el.CreateElement("Phone").SetText(contact.Phone)
}

// faultString returns the fault message when doc carries a SOAP fault.
func faultString(doc *etree.Document) (string, bool) {
	fault := doc.FindElement("//Fault")
	if fault == nil {
		return "", false
	}
	if fs := fault.SelectElement("faultstring"); fs != nil {
		return strings.TrimSpace(fs.Text()), true
	}
	return "unspecified fault", true
}

// parsedQuote is a decoded <Quote> element; price parse failures are kept for logging.
type parsedQuote struct {
	option   transport.QuoteOption
	priceErr error
}

func parseQuotes(doc *etree.Document) []parsedQuote {
	elements := doc.FindElements("//Quotes/Quote")
	out := make([]parsedQuote, 0, len(elements))
	for _, el := range elements {
		out = append(out, parseQuote(el))
	}
	return out
}

func parseQuote(el *etree.Element) parsedQuote {
	opt := transport.QuoteOption{
		ProviderQuoteID:   childText(el, "QuoteId"),
		SchemeID:          childText(el, "SchemeId"),
		Name:              childText(el, "Name"),
		PolicyTypeName:    childText(el, "PolicyType"),
		Tier:              parseTier(childText(el, "Tier")),
		Currency:          strings.ToUpper(childText(el, "Currency")),
		BestBuy:           parseBool(childText(el, "BestBuy")),
		SummaryOfCoverURL: childText(el, "SummaryOfCoverUrl"),
		PolicyWordingURL:  childText(el, "PolicyWordingUrl"),
	}
	if opt.Currency == "" {
		opt.Currency = "EUR"
	}
	opt.ID = opt.ProviderQuoteID
	if opt.ID == "" {
		opt.ID = "scheme-" + opt.SchemeID
	}
	opt.Priority, _ = strconv.Atoi(childText(el, "Priority"))

	opt.Coverage.MedicalCents, _ = parseCents(childText(el, "MedicalLimit"))
	opt.Coverage.BaggageCents, _ = parseCents(childText(el, "BaggageLimit"))
	opt.Coverage.CancellationCents, _ = parseCents(childText(el, "CancellationLimit"))
	opt.Coverage.Activities = childTexts(el, "Activities", "Activity")
	opt.Features = childTexts(el, "Features", "Feature")

	price, err := parseCents(childText(el, "Price"))
	opt.PriceCents = price
	return parsedQuote{option: opt, priceErr: err}
}

func parseFinalize(doc *etree.Document) *transport.FinalizeResult {
	result := &transport.FinalizeResult{}
	el := doc.FindElement("//SaveIssuedPolicyResult")
	if el == nil {
		return result
	}
	result.Saved = parseBool(childText(el, "Saved"))
	result.PolicyID = childText(el, "PolicyId")
	if docs := el.SelectElement("Documents"); docs != nil {
		result.Documents = transport.DocumentURLs{
			Certificate:    childText(docs, "Certificate"),
			PolicyWording:  childText(docs, "PolicyWording"),
			SummaryOfCover: childText(docs, "SummaryOfCover"),
			KeyFacts:       childText(docs, "KeyFacts"),
			IPID:           childText(docs, "Ipid"),
		}
	}
	return result
}

func parseScreening(doc *etree.Document) []transport.ScreeningQuestion {
	elements := doc.FindElements("//Questions/Question")
	out := make([]transport.ScreeningQuestion, 0, len(elements))
	for _, el := range elements {
		out = append(out, transport.ScreeningQuestion{
			ID:   childText(el, "Id"),
			Text: childText(el, "Text"),
		})
	}
	return out
}

func parseEmail(doc *etree.Document) *transport.EmailResult {
	el := doc.FindElement("//EmailDocumentsResult")
	if el == nil {
		return &transport.EmailResult{}
	}
	return &transport.EmailResult{Sent: parseBool(childText(el, "Sent"))}
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func childTexts(el *etree.Element, listTag, itemTag string) []string {
	list := el.SelectElement(listTag)
	if list == nil {
		return nil
	}
	var out []string
	for _, item := range list.SelectElements(itemTag) {
		if text := strings.TrimSpace(item.Text()); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func parseTier(s string) transport.Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "premium", "gold", "platinum":
		return transport.TierPremium
	case "standard", "silver":
		return transport.TierStandard
	default:
		return transport.TierBasic
	}
}

// parseCents converts a decimal amount such as "52.3", "52,30",
// "-1,000.25" or "1.000,25" to cents. Digits beyond the second decimal are
// truncated. Separators that fit neither grouping nor a decimal mark are
// rejected.
func parseCents(raw string) (int64, error) {
	s, err := normalizeAmount(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	frac = (frac + "00")[:2]
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	total := units*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

// normalizeAmount rewrites s to use "." as the only decimal mark and no
// grouping. With both marks present the last one is the decimal mark. A
// lone comma followed by one or two digits is a decimal comma.
func normalizeAmount(s string) (string, error) {
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	var group, decimal string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			group, decimal = ",", "."
		} else {
			group, decimal = ".", ","
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			decimal = ","
		} else {
			group = ","
		}
	case strings.Count(s, ".") > 1:
		group = "."
	default:
		return s, nil
	}

	whole, frac := s, ""
	if decimal != "" {
		i := strings.LastIndex(s, decimal)
		whole, frac = s[:i], s[i+1:]
		if (group != "" && strings.Contains(frac, group)) || strings.Contains(whole, decimal) {
			return "", fmt.Errorf("ambiguous amount %q", s)
		}
	}
	if group != "" {
		parts := strings.Split(strings.TrimPrefix(whole, "-"), group)
		for i, part := range parts {
			if (i == 0 && (part == "" || len(part) > 3)) || (i > 0 && len(part) != 3) {
				return "", fmt.Errorf("ambiguous amount %q", s)
			}
		}
		whole = strings.ReplaceAll(whole, group, "")
	}
	if decimal == "" {
		return whole, nil
	}
	return whole + "." + frac, nil
}
