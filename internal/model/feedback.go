package model

// FeedbackKind classifies human feedback on a processing result. It is the
// explicit control channel; free-text comment sniffing remains as a
// fallback for callers that only supply a comment.
type FeedbackKind string

const (
	// FeedbackUnspecified means the caller gave no explicit classification.
	FeedbackUnspecified FeedbackKind = ""
	// FeedbackPositive confirms the proposed corrections were right.
	FeedbackPositive FeedbackKind = "positive"
	// FeedbackNegative rejects applied rules and triggers confidence decay.
	FeedbackNegative FeedbackKind = "negative"
	// FeedbackTaxNote signals the invoice total is tax inclusive.
	FeedbackTaxNote FeedbackKind = "tax_note"
)

// CorrectionFeedback carries a human-corrected invoice back into the
// learning engine. The corrected invoice is treated as ground truth. The
// feedback itself is consumed once and not retained; only the rules and
// history it produces persist.
type CorrectionFeedback struct {
	OriginalInvoiceID string       `json:"originalInvoiceId"`
	Kind              FeedbackKind `json:"kind,omitempty"`
	Comment           string       `json:"comment,omitempty"`
	CorrectedInvoice  *Invoice     `json:"correctedInvoice"`
}
