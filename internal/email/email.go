// Package email delivers customer emails.
package email

import "context"

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes
	FileName string // e.g. "policy-summary-POL-123.pdf"
	MIMEType string // e.g. "application/pdf"
}

// PolicyConfirmation is the content of the email sent once a policy is issued.
type PolicyConfirmation struct {
	ToEmail      string
	HolderName   string
	PolicyNumber string
	QuoteName    string
	TotalCents   int64
	Currency     string
	DocumentsURL string
	// ProviderEmailed reports whether the insurer already emailed its own
	// documents; the wording of the email adapts to it.
	ProviderEmailed bool
}

type Sender interface {
	SendPolicyConfirmation(ctx context.Context, msg PolicyConfirmation, attachments ...Attachment) error
}

type NoopSender struct{}

func (NoopSender) SendPolicyConfirmation(context.Context, PolicyConfirmation, ...Attachment) error {
	return nil
}
