package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgersmith/recall/internal/model"
)

func TestClassifyFeedback(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.FeedbackKind
		comment string
		want    feedbackSignals
	}{
		{
			name: "no signals",
			want: feedbackSignals{},
		},
		{
			name:    "penalty comment",
			comment: "Penalty for bad SKU",
			want:    feedbackSignals{penalty: true},
		},
		{
			name: "explicit negative kind",
			kind: model.FeedbackNegative,
			want: feedbackSignals{penalty: true},
		},
		{
			name:    "tax comment",
			comment: "Tax inclusive totals here",
			want:    feedbackSignals{taxInclusive: true},
		},
		{
			name: "explicit tax kind",
			kind: model.FeedbackTaxNote,
			want: feedbackSignals{taxInclusive: true},
		},
		{
			name:    "both signals in one comment",
			comment: "Tax inclusive. Also Penalty.",
			want:    feedbackSignals{taxInclusive: true, penalty: true},
		},
		{
			name:    "kind and comment combine",
			kind:    model.FeedbackNegative,
			comment: "Tax inclusive",
			want:    feedbackSignals{taxInclusive: true, penalty: true},
		},
		{
			name: "positive kind carries no learning signal",
			kind: model.FeedbackPositive,
			want: feedbackSignals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyFeedback(&model.CorrectionFeedback{Kind: tt.kind, Comment: tt.comment})
			assert.Equal(t, tt.want, got)
		})
	}
}
