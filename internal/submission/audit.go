package submission

import (
	"encoding/json"
	"fmt"
	"sort"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// responseDiff lists which question ids changed between two response sets.
type responseDiff struct {
	Changed []string
	Added   []string
	Removed []string
}

func (d responseDiff) empty() bool {
	return len(d.Changed) == 0 && len(d.Added) == 0 && len(d.Removed) == 0
}

// answerDoc is the JSON document of a response set used for diffs and
// patches: question id -> raw answer. Display adjustments are left out so
// that only answer changes count.
func answerDoc(rs []QuestionResponse) map[string]json.RawMessage {
	doc := make(map[string]json.RawMessage, len(rs))
	for _, r := range rs {
		b, _ := json.Marshal(struct {
			YesNoAnswer *bool                 `json:"yes_no_answer,omitempty"`
			TextAnswer  *string               `json:"text_answer,omitempty"`
			Options     []OptionResponse      `json:"options,omitempty"`
			SubAnswers  []SubQuestionResponse `json:"sub_answers,omitempty"`
		}{r.YesNoAnswer, r.TextAnswer, r.Options, r.SubAnswers})
		doc[r.QuestionID] = b
	}
	return doc
}

func diffResponses(before, after []QuestionResponse) responseDiff {
	old := answerDoc(before)
	cur := answerDoc(after)

	var d responseDiff
	for id, b := range cur {
		a, ok := old[id]
		switch {
		case !ok:
			d.Added = append(d.Added, id)
		case string(a) != string(b):
			d.Changed = append(d.Changed, id)
		}
	}
	for id := range old {
		if _, ok := cur[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Changed)
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	if d.Changed == nil {
		d.Changed = []string{}
	}
	if d.Added == nil {
		d.Added = []string{}
	}
	if d.Removed == nil {
		d.Removed = []string{}
	}
	return d
}

// responsePatch returns the JSON merge patch that turns the before answers
// into the after answers.
func responsePatch(before, after []QuestionResponse) (json.RawMessage, error) {
	a, err := json.Marshal(answerDoc(before))
	if err != nil {
		return nil, fmt.Errorf("failed to encode previous responses: %w", err)
	}
	b, err := json.Marshal(answerDoc(after))
	if err != nil {
		return nil, fmt.Errorf("failed to encode new responses: %w", err)
	}
	patch, err := jsonpatch.CreateMergePatch(a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to create response patch: %w", err)
	}
	return patch, nil
}
