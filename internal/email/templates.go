package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type policyConfirmationEmailData struct {
	baseEmailData
	HolderName      string
	PolicyNumber    string
	QuoteName       string
	TotalFormatted  string
	ProviderEmailed bool
	HasAttachments  bool
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrency(cents int64, currency string) string {
	amount := float64(cents) / 100
	switch code := strings.ToUpper(currency); code {
	case "", "EUR":
		return fmt.Sprintf("€%.2f", amount)
	case "GBP":
		return fmt.Sprintf("£%.2f", amount)
	default:
		return fmt.Sprintf("%s %.2f", code, amount)
	}
}

func policyConfirmationContent(msg PolicyConfirmation, attachments int) (subject, content string, err error) {
	subject = fmt.Sprintf(subjectPolicyConfirmationFmt, msg.PolicyNumber)
	data := policyConfirmationEmailData{
		baseEmailData: baseEmailData{
			Title:      "Your policy is confirmed",
			Heading:    "Your policy is confirmed",
			Subheading: "Policy number " + msg.PolicyNumber,
		},
		HolderName:      msg.HolderName,
		PolicyNumber:    msg.PolicyNumber,
		QuoteName:       msg.QuoteName,
		TotalFormatted:  formatCurrency(msg.TotalCents, msg.Currency),
		ProviderEmailed: msg.ProviderEmailed,
		HasAttachments:  attachments > 0,
	}
	if msg.DocumentsURL != "" {
		data.CTALabel = "View your documents"
		data.CTAURL = msg.DocumentsURL
	}
	content, err = renderEmailTemplate("policy_confirmation.html", data)
	return subject, content, err
}
