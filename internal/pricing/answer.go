package pricing

import (
	"github.com/kosarica/quote-service/internal/catalog"
)

// ResponseInput is one raw answer as submitted by a client.
type ResponseInput struct {
	QuestionID         string            `json:"question_id" yaml:"question_id"`
	YesNoAnswer        *bool             `json:"yes_no_answer,omitempty" yaml:"yes_no_answer,omitempty"`
	TextAnswer         *string           `json:"text_answer,omitempty" yaml:"text_answer,omitempty"`
	SelectedOptions    []OptionSelection `json:"selected_options,omitempty" yaml:"selected_options,omitempty"`
	SubQuestionAnswers []SubAnswer       `json:"sub_question_answers,omitempty" yaml:"sub_question_answers,omitempty"`
	ParentQuestionID   string            `json:"parent_question_id,omitempty" yaml:"parent_question_id,omitempty"`
}

// OptionSelection is a chosen option. Quantity is optional for describe
// questions and defaults to 1.
type OptionSelection struct {
	OptionID string `json:"option_id" yaml:"option_id"`
	Quantity *int   `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// SubAnswer is the answer to one sub-question of a multiple_yes_no question.
type SubAnswer struct {
	SubQuestionID string `json:"sub_question_id" yaml:"sub_question_id"`
	Answer        bool   `json:"answer" yaml:"answer"`
}

// Answer is the typed answer of one question. Each question type has its own
// variant carrying only the fields that type uses.
type Answer interface {
	Type() catalog.QuestionType
}

// SelectedOption is a validated, deduplicated option choice.
type SelectedOption struct {
	OptionID string
	Quantity int
}

// YesNoAnswer answers a yes_no question.
type YesNoAnswer struct {
	Yes bool
}

// ConditionalAnswer answers a conditional question. It is a yes/no answer.
type ConditionalAnswer struct {
	Yes bool
}

// DescribeAnswer answers a describe question with a set of options and an
// optional free-text description.
type DescribeAnswer struct {
	Options []SelectedOption
	Text    string
}

// QuantityAnswer answers a quantity question with option quantities.
type QuantityAnswer struct {
	Options []SelectedOption
}

// TotalQuantity sums the quantities of every selected option.
func (a QuantityAnswer) TotalQuantity() int {
	total := 0
	for _, o := range a.Options {
		total += o.Quantity
	}
	return total
}

// MultipleYesNoAnswer answers every sub-question of a multiple_yes_no question.
type MultipleYesNoAnswer struct {
	Subs []SubAnswer
}

// AnyTrue reports whether at least one sub-question was answered yes.
func (a MultipleYesNoAnswer) AnyTrue() bool {
	for _, s := range a.Subs {
		if s.Answer {
			return true
		}
	}
	return false
}

// MeasurementAnswer records a measurement. It never affects price.
type MeasurementAnswer struct {
	Value string
}

func (YesNoAnswer) Type() catalog.QuestionType         { return catalog.QuestionYesNo }
func (ConditionalAnswer) Type() catalog.QuestionType   { return catalog.QuestionConditional }
func (DescribeAnswer) Type() catalog.QuestionType      { return catalog.QuestionDescribe }
func (QuantityAnswer) Type() catalog.QuestionType      { return catalog.QuestionQuantity }
func (MultipleYesNoAnswer) Type() catalog.QuestionType { return catalog.QuestionMultipleYesNo }
func (MeasurementAnswer) Type() catalog.QuestionType   { return catalog.QuestionMeasurement }

// Response is a validated answer bound to its catalog question.
type Response struct {
	QuestionID string
	ParentID   string
	Depth      int
	Answer     Answer
}

// YesNoLabel returns "yes" or "no" for yes/no style answers, and "" otherwise.
func (r Response) YesNoLabel() string {
	var yes bool
	switch a := r.Answer.(type) {
	case YesNoAnswer:
		yes = a.Yes
	case ConditionalAnswer:
		yes = a.Yes
	default:
		return ""
	}
	if yes {
		return "yes"
	}
	return "no"
}

// HasOption reports whether the response selected optionID.
func (r Response) HasOption(optionID string) bool {
	var opts []SelectedOption
	switch a := r.Answer.(type) {
	case DescribeAnswer:
		opts = a.Options
	case QuantityAnswer:
		opts = a.Options
	}
	for _, o := range opts {
		if o.OptionID == optionID {
			return true
		}
	}
	return false
}

// Satisfies reports whether this response, as the parent, satisfies cond.
// A multiple_yes_no parent is satisfied by any true sub answer; otherwise an
// option condition tests membership and an answer condition matches the
// yes/no label exactly. A nil condition is always satisfied.
func (r Response) Satisfies(cond *catalog.Condition) bool {
	if m, ok := r.Answer.(MultipleYesNoAnswer); ok {
		return m.AnyTrue()
	}
	if cond == nil {
		return true
	}
	if cond.OptionID != "" {
		return r.HasOption(cond.OptionID)
	}
	if cond.Answer != "" {
		return r.YesNoLabel() == cond.Answer
	}
	return true
}

// ToInput converts a validated response back to its wire form. Round-tripping
// through ToInput and Validate yields the same response.
func (r Response) ToInput() ResponseInput {
	in := ResponseInput{QuestionID: r.QuestionID, ParentQuestionID: r.ParentID}
	switch a := r.Answer.(type) {
	case YesNoAnswer:
		in.YesNoAnswer = boolPtr(a.Yes)
	case ConditionalAnswer:
		in.YesNoAnswer = boolPtr(a.Yes)
	case DescribeAnswer:
		in.SelectedOptions = toSelections(a.Options)
		if a.Text != "" {
			in.TextAnswer = &a.Text
		}
	case QuantityAnswer:
		in.SelectedOptions = toSelections(a.Options)
	case MultipleYesNoAnswer:
		in.SubQuestionAnswers = append([]SubAnswer(nil), a.Subs...)
	case MeasurementAnswer:
		in.TextAnswer = &a.Value
	}
	return in
}

func toSelections(opts []SelectedOption) []OptionSelection {
	out := make([]OptionSelection, 0, len(opts))
	for _, o := range opts {
		q := o.Quantity
		out = append(out, OptionSelection{OptionID: o.OptionID, Quantity: &q})
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
