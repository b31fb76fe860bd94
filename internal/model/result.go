package model

import "time"

// AuditStep identifies which phase of processing produced an audit entry.
type AuditStep string

// Audit step constants.
const (
	StepRecall AuditStep = "recall"
	StepApply  AuditStep = "apply"
	StepDecide AuditStep = "decide"
	StepLearn  AuditStep = "learn"
)

// AuditEntry is one line of the ordered audit trail.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Step      AuditStep `json:"step"`
	Details   string    `json:"details"`
}

// ProcessingResult is the outcome of running the engine over one invoice.
// It is a computed value and is never persisted.
type ProcessingResult struct {
	NormalizedInvoice   *Invoice     `json:"normalizedInvoice"`
	Reasoning           string       `json:"reasoning"`
	ProposedCorrections []string     `json:"proposedCorrections"`
	AuditTrail          []AuditEntry `json:"auditTrail"`
	ConfidenceScore     float64      `json:"confidenceScore"`
	RequiresHumanReview bool         `json:"requiresHumanReview"`
}
