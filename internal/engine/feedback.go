package engine

import (
	"strings"

	"github.com/ledgersmith/recall/internal/model"
)

// Legacy comment substrings that drive learning behavior. Callers should
// prefer the explicit FeedbackKind; these remain so feedback that only
// carries a free-text comment keeps working.
const (
	commentPenaltySignal = "Penalty"
	commentTaxSignal     = "Tax inclusive"
)

// feedbackSignals distills a CorrectionFeedback into the independent
// signals the learning passes react to. The explicit kind and the comment
// channel are OR-ed together, never exclusive.
type feedbackSignals struct {
	taxInclusive bool
	penalty      bool
}

func classifyFeedback(feedback *model.CorrectionFeedback) feedbackSignals {
	return feedbackSignals{
		taxInclusive: feedback.Kind == model.FeedbackTaxNote ||
			strings.Contains(feedback.Comment, commentTaxSignal),
		penalty: feedback.Kind == model.FeedbackNegative ||
			strings.Contains(feedback.Comment, commentPenaltySignal),
	}
}
