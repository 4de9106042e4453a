package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kosarica/quote-service/internal/catalog"
)

// Issue describes one problem with a response batch.
type Issue struct {
	QuestionID string `json:"question_id"`
	TargetID   string `json:"target_id,omitempty"` // option or sub-question id, when relevant
	Reason     string `json:"reason"`
}

// ValidationError lists every problem found in a response batch. Nothing is
// written when it is returned.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.TargetID != "" {
			parts = append(parts, fmt.Sprintf("%s/%s: %s", is.QuestionID, is.TargetID, is.Reason))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", is.QuestionID, is.Reason))
		}
	}
	return "invalid responses: " + strings.Join(parts, "; ")
}

// QuestionIDs returns the distinct offending question ids in issue order.
func (e *ValidationError) QuestionIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, is := range e.Issues {
		if !seen[is.QuestionID] {
			seen[is.QuestionID] = true
			ids = append(ids, is.QuestionID)
		}
	}
	return ids
}

// Validate checks a response batch against the service catalog and returns
// typed responses ordered so that every parent precedes its dependents.
//
// When a question id appears more than once, the last occurrence wins.
// Repeated options and sub-question answers within one response keep their
// first occurrence.
func Validate(sc *catalog.ServiceCatalog, inputs []ResponseInput) ([]Response, error) {
	v := &validator{sc: sc}

	last := make(map[string]int, len(inputs))
	for i, in := range inputs {
		last[in.QuestionID] = i
	}

	responses := make([]Response, 0, len(last))
	byQuestion := make(map[string]Response, len(last))
	for i, in := range inputs {
		if last[in.QuestionID] != i {
			continue
		}
		resp, ok := v.typed(in)
		if !ok {
			continue
		}
		responses = append(responses, resp)
		byQuestion[resp.QuestionID] = resp
	}

	for _, resp := range responses {
		if resp.ParentID == "" {
			continue
		}
		q := sc.Question(resp.QuestionID)
		parent, ok := byQuestion[resp.ParentID]
		if !ok {
			v.issue(resp.QuestionID, "", fmt.Sprintf("parent question %s is not answered in this batch", resp.ParentID))
			continue
		}
		if !parent.Satisfies(q.Condition) {
			v.issue(resp.QuestionID, "", fmt.Sprintf("condition on parent question %s is not met", resp.ParentID))
		}
	}

	if len(v.issues) > 0 {
		return nil, &ValidationError{Issues: v.issues}
	}

	Order(responses)
	return responses, nil
}

// Order sorts responses by depth, then by parent id, keeping input order for
// ties.
func Order(responses []Response) {
	sort.SliceStable(responses, func(i, j int) bool {
		if responses[i].Depth != responses[j].Depth {
			return responses[i].Depth < responses[j].Depth
		}
		return responses[i].ParentID < responses[j].ParentID
	})
}

type validator struct {
	sc     *catalog.ServiceCatalog
	issues []Issue
}

func (v *validator) issue(questionID, targetID, reason string) {
	v.issues = append(v.issues, Issue{QuestionID: questionID, TargetID: targetID, Reason: reason})
}

func (v *validator) typed(in ResponseInput) (Response, bool) {
	if in.QuestionID == "" {
		v.issue("", "", "question_id is required")
		return Response{}, false
	}
	q := v.sc.Question(in.QuestionID)
	if q == nil {
		v.issue(in.QuestionID, "", "unknown question for service "+v.sc.Service.ID)
		return Response{}, false
	}
	if !q.Active {
		v.issue(in.QuestionID, "", "question is not active")
		return Response{}, false
	}
	if in.ParentQuestionID != "" && in.ParentQuestionID != q.ParentID {
		v.issue(in.QuestionID, "", fmt.Sprintf("parent_question_id %s does not match question parent", in.ParentQuestionID))
		return Response{}, false
	}

	before := len(v.issues)
	var answer Answer
	switch q.Type {
	case catalog.QuestionYesNo:
		if in.YesNoAnswer == nil {
			v.issue(q.ID, "", "yes_no_answer is required")
		} else {
			answer = YesNoAnswer{Yes: *in.YesNoAnswer}
		}
	case catalog.QuestionConditional:
		if in.YesNoAnswer == nil {
			v.issue(q.ID, "", "yes_no_answer is required")
		} else {
			answer = ConditionalAnswer{Yes: *in.YesNoAnswer}
		}
	case catalog.QuestionDescribe:
		a := DescribeAnswer{Options: v.options(q, in.SelectedOptions, false)}
		if in.TextAnswer != nil {
			a.Text = *in.TextAnswer
		}
		answer = a
	case catalog.QuestionQuantity:
		answer = QuantityAnswer{Options: v.options(q, in.SelectedOptions, true)}
	case catalog.QuestionMultipleYesNo:
		answer = MultipleYesNoAnswer{Subs: v.subs(q, in.SubQuestionAnswers)}
	case catalog.QuestionMeasurement:
		if in.TextAnswer == nil || strings.TrimSpace(*in.TextAnswer) == "" {
			v.issue(q.ID, "", "measurement is required")
		} else {
			answer = MeasurementAnswer{Value: strings.TrimSpace(*in.TextAnswer)}
		}
	default:
		v.issue(q.ID, "", fmt.Sprintf("unsupported question type %q", q.Type))
	}
	if len(v.issues) > before {
		return Response{}, false
	}

	return Response{
		QuestionID: q.ID,
		ParentID:   q.ParentID,
		Depth:      v.depth(q),
		Answer:     answer,
	}, true
}

func (v *validator) options(q *catalog.Question, in []OptionSelection, quantityRequired bool) []SelectedOption {
	seen := make(map[string]bool, len(in))
	out := make([]SelectedOption, 0, len(in))
	for _, sel := range in {
		if !q.HasOption(sel.OptionID) {
			v.issue(q.ID, sel.OptionID, "option does not belong to question")
			continue
		}
		if seen[sel.OptionID] {
			continue
		}
		seen[sel.OptionID] = true

		qty := 1
		if sel.Quantity != nil {
			qty = *sel.Quantity
		} else if quantityRequired {
			v.issue(q.ID, sel.OptionID, "quantity is required")
			continue
		}
		if qty < 0 {
			v.issue(q.ID, sel.OptionID, "quantity must not be negative")
			continue
		}
		if qty == 0 {
			continue
		}
		out = append(out, SelectedOption{OptionID: sel.OptionID, Quantity: qty})
	}
	return out
}

func (v *validator) subs(q *catalog.Question, in []SubAnswer) []SubAnswer {
	seen := make(map[string]bool, len(in))
	out := make([]SubAnswer, 0, len(in))
	for _, sa := range in {
		if !q.HasSubQuestion(sa.SubQuestionID) {
			v.issue(q.ID, sa.SubQuestionID, "sub-question does not belong to question")
			continue
		}
		if seen[sa.SubQuestionID] {
			continue
		}
		seen[sa.SubQuestionID] = true
		out = append(out, sa)
	}
	return out
}

// depth counts ancestors in the catalog. Cycles are cut at the catalog size.
func (v *validator) depth(q *catalog.Question) int {
	d := 0
	for cur := q; cur != nil && cur.ParentID != "" && d <= len(v.sc.Questions); d++ {
		cur = v.sc.Question(cur.ParentID)
	}
	return d
}
