package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinatorReplyValidate(t *testing.T) {
	tests := []struct {
		name    string
		reply   CoordinatorReply
		wantErr bool
	}{
		{
			name:  "collect_info mid-script",
			reply: CoordinatorReply{Action: ActionCollectInfo, CompletionPercentage: 25, CollectedData: map[string]any{FieldLoanAmount: 300000.0}},
		},
		{
			name:    "collect_info at 100 is contradictory",
			reply:   CoordinatorReply{Action: ActionCollectInfo, CompletionPercentage: 100},
			wantErr: true,
		},
		{
			name:    "non-step completion",
			reply:   CoordinatorReply{Action: ActionCollectInfo, CompletionPercentage: 33},
			wantErr: true,
		},
		{
			name:  "ready with complete data",
			reply: CoordinatorReply{Action: ActionReadyForProcessing, CompletionPercentage: 100, CollectedData: completeData()},
		},
		{
			name:    "ready without complete data",
			reply:   CoordinatorReply{Action: ActionReadyForProcessing, CompletionPercentage: 100, CollectedData: map[string]any{FieldLoanAmount: 1.0}},
			wantErr: true,
		},
		{
			name:    "ready below 100",
			reply:   CoordinatorReply{Action: ActionReadyForProcessing, CompletionPercentage: 75, CollectedData: completeData()},
			wantErr: true,
		},
		{
			name:    "unknown action",
			reply:   CoordinatorReply{Action: "chitchat", CompletionPercentage: 0},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reply.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompletionFor(t *testing.T) {
	data := map[string]any{}
	assert.Equal(t, 0, CompletionFor(data))

	data[FieldLoanAmount] = 500000.0
	assert.Equal(t, 25, CompletionFor(data))

	data[FieldDownPayment] = 100000.0
	assert.Equal(t, 50, CompletionFor(data))

	data[FieldAnnualIncome] = 175000.0
	assert.Equal(t, 75, CompletionFor(data))

	data[FieldName] = "Tony Stark"
	data[FieldEmail] = "tony@stark.com"
	assert.Equal(t, 75, CompletionFor(data), "contact block is all-or-nothing")

	data[FieldIDLast4] = "1234"
	assert.Equal(t, 100, CompletionFor(data))

	// an invalid value does not count as collected
	data[FieldEmail] = "nope"
	assert.Equal(t, 75, CompletionFor(data))
}

func TestMergeCollected(t *testing.T) {
	base := map[string]any{FieldLoanAmount: 300000.0, FieldEmail: "a@b.co"}
	patch := map[string]any{FieldDownPayment: 60000.0, FieldEmail: nil, FieldLoanAmount: 350000.0}

	merged := MergeCollected(base, patch)
	assert.Equal(t, 350000.0, merged[FieldLoanAmount], "new values replace old")
	assert.Equal(t, "a@b.co", merged[FieldEmail], "null never overwrites a present field")
	assert.Equal(t, 60000.0, merged[FieldDownPayment])

	// inputs untouched
	assert.Equal(t, 300000.0, base[FieldLoanAmount])
	assert.Contains(t, patch, FieldEmail)
}
