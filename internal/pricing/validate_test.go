package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/quote-service/internal/catalog"
)

func TestValidateConditionAnswerMismatch(t *testing.T) {
	sc := testCatalog("0")

	_, err := Validate(sc, []ResponseInput{no("q-yes"), yes("q-child")})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"q-child"}, verr.QuestionIDs())
}

func TestValidateConditionalParentMissing(t *testing.T) {
	sc := testCatalog("0")

	_, err := Validate(sc, []ResponseInput{yes("q-child")})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Issues[0].Reason, "not answered")
}

func TestValidateConditionTests(t *testing.T) {
	sc := testCatalog("0")

	tests := []struct {
		name    string
		inputs  []ResponseInput
		wantErr bool
	}{
		{
			name:   "answer condition met",
			inputs: []ResponseInput{yes("q-yes"), yes("q-child")},
		},
		{
			name: "answer no condition met",
			inputs: []ResponseInput{no("q-yes"), {
				QuestionID:      "q-kind",
				SelectedOptions: []OptionSelection{{OptionID: "o-a"}},
			}},
		},
		{
			name: "multiple yes/no parent any true",
			inputs: []ResponseInput{{
				QuestionID:         "q-multi",
				SubQuestionAnswers: []SubAnswer{{SubQuestionID: "s-1", Answer: false}, {SubQuestionID: "s-2", Answer: true}},
			}, yes("q-after-multi")},
		},
		{
			name: "multiple yes/no parent all false",
			inputs: []ResponseInput{{
				QuestionID:         "q-multi",
				SubQuestionAnswers: []SubAnswer{{SubQuestionID: "s-1", Answer: false}},
			}, yes("q-after-multi")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(sc, tt.inputs)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOptionCondition(t *testing.T) {
	sc := testCatalog("0")
	child := sc.Question("q-child")
	child.ParentID = "q-qty"
	child.Condition = &catalog.Condition{OptionID: "o-x"}

	qty := ResponseInput{QuestionID: "q-qty", SelectedOptions: []OptionSelection{{OptionID: "o-y", Quantity: intPtr(2)}}}
	_, err := Validate(sc, []ResponseInput{qty, yes("q-child")})
	assert.Error(t, err)

	qty.SelectedOptions = append(qty.SelectedOptions, OptionSelection{OptionID: "o-x", Quantity: intPtr(1)})
	_, err = Validate(sc, []ResponseInput{qty, yes("q-child")})
	assert.NoError(t, err)
}

func TestValidateCollectsEveryIssue(t *testing.T) {
	sc := testCatalog("0")

	inputs := []ResponseInput{
		{QuestionID: "q-unknown"},
		{QuestionID: "q-yes"},
		{QuestionID: "q-qty", SelectedOptions: []OptionSelection{{OptionID: "o-x", Quantity: intPtr(-1)}}},
		{QuestionID: "q-multi", SubQuestionAnswers: []SubAnswer{{SubQuestionID: "s-9", Answer: true}}},
		{QuestionID: "q-size"},
		yes("q-old"),
	}
	_, err := Validate(sc, inputs)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t,
		[]string{"q-unknown", "q-yes", "q-qty", "q-multi", "q-size", "q-old"},
		verr.QuestionIDs())
}

func TestValidateParentMismatch(t *testing.T) {
	sc := testCatalog("0")

	in := yes("q-child")
	in.ParentQuestionID = "q-multi"
	_, err := Validate(sc, []ResponseInput{yes("q-yes"), in})
	assert.Error(t, err)
}

func TestValidateDeduplicatesNestedEntries(t *testing.T) {
	sc := testCatalog("0")

	inputs := []ResponseInput{
		{QuestionID: "q-qty", SelectedOptions: []OptionSelection{
			{OptionID: "o-x", Quantity: intPtr(2)},
			{OptionID: "o-x", Quantity: intPtr(7)},
			{OptionID: "o-y", Quantity: intPtr(0)},
		}},
		{QuestionID: "q-multi", SubQuestionAnswers: []SubAnswer{
			{SubQuestionID: "s-1", Answer: true},
			{SubQuestionID: "s-1", Answer: false},
		}},
	}
	responses, err := Validate(sc, inputs)
	require.NoError(t, err)
	require.Len(t, responses, 2)

	qty := responses[0].Answer.(QuantityAnswer)
	assert.Equal(t, []SelectedOption{{OptionID: "o-x", Quantity: 2}}, qty.Options)

	multi := responses[1].Answer.(MultipleYesNoAnswer)
	assert.Equal(t, []SubAnswer{{SubQuestionID: "s-1", Answer: true}}, multi.Subs)
}

func TestValidateRepeatedQuestionLastWins(t *testing.T) {
	sc := testCatalog("0")

	responses, err := Validate(sc, []ResponseInput{yes("q-yes"), no("q-yes")})
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, YesNoAnswer{Yes: false}, responses[0].Answer)
}

func TestValidateDescribeDefaultsQuantity(t *testing.T) {
	sc := testCatalog("0")

	responses, err := Validate(sc, []ResponseInput{no("q-yes"), {
		QuestionID:      "q-kind",
		TextAnswer:      strPtr("two sheds"),
		SelectedOptions: []OptionSelection{{OptionID: "o-b"}},
	}})
	require.NoError(t, err)
	a := responses[1].Answer.(DescribeAnswer)
	assert.Equal(t, 1, a.Options[0].Quantity)
	assert.Equal(t, "two sheds", a.Text)
}

func TestValidateOrdersParentsFirst(t *testing.T) {
	sc := testCatalog("0")

	inputs := []ResponseInput{
		yes("q-after-multi"),
		yes("q-child"),
		{QuestionID: "q-size", TextAnswer: strPtr("1200 sqft")},
		{QuestionID: "q-multi", SubQuestionAnswers: []SubAnswer{{SubQuestionID: "s-1", Answer: true}}},
		yes("q-yes"),
	}
	responses, err := Validate(sc, inputs)
	require.NoError(t, err)

	var ids []string
	for _, r := range responses {
		ids = append(ids, r.QuestionID)
	}
	// roots keep input order; children sort by parent id
	assert.Equal(t, []string{"q-size", "q-multi", "q-yes", "q-after-multi", "q-child"}, ids)
}

func TestResponseToInputRoundTrip(t *testing.T) {
	sc := testCatalog("0")

	inputs := []ResponseInput{
		no("q-yes"),
		{QuestionID: "q-kind", TextAnswer: strPtr("x"), SelectedOptions: []OptionSelection{{OptionID: "o-a"}}},
		{QuestionID: "q-qty", SelectedOptions: []OptionSelection{{OptionID: "o-y", Quantity: intPtr(3)}}},
		{QuestionID: "q-size", TextAnswer: strPtr("10m")},
	}
	first, err := Validate(sc, inputs)
	require.NoError(t, err)

	again := make([]ResponseInput, 0, len(first))
	for _, r := range first {
		again = append(again, r.ToInput())
	}
	second, err := Validate(sc, again)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
