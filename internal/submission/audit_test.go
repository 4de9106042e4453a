package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolRef(v bool) *bool { return &v }

func TestDiffResponses(t *testing.T) {
	before := []QuestionResponse{
		{QuestionID: "q-a", YesNoAnswer: boolRef(false), PriceAdjustment: dec("5")},
		{QuestionID: "q-b", Options: []OptionResponse{{OptionID: "o-1", Quantity: 2}}},
		{QuestionID: "q-c", TextAnswer: strPtr("1200")},
	}
	after := []QuestionResponse{
		{QuestionID: "q-a", YesNoAnswer: boolRef(false), PriceAdjustment: dec("9")},
		{QuestionID: "q-b", Options: []OptionResponse{{OptionID: "o-1", Quantity: 3}}},
		{QuestionID: "q-d", YesNoAnswer: boolRef(true)},
	}

	d := diffResponses(before, after)
	assert.Equal(t, []string{"q-b"}, d.Changed, "display adjustments alone are not a change")
	assert.Equal(t, []string{"q-d"}, d.Added)
	assert.Equal(t, []string{"q-c"}, d.Removed)
	assert.False(t, d.empty())

	assert.True(t, diffResponses(before, before).empty())
}

func TestResponsePatch(t *testing.T) {
	before := []QuestionResponse{
		{QuestionID: "q-a", YesNoAnswer: boolRef(false)},
		{QuestionID: "q-c", TextAnswer: strPtr("1200")},
	}
	after := []QuestionResponse{
		{QuestionID: "q-a", YesNoAnswer: boolRef(true)},
	}

	patch, err := responsePatch(before, after)
	require.NoError(t, err)
	assert.JSONEq(t, `{"q-a":{"yes_no_answer":true},"q-c":null}`, string(patch))
}
