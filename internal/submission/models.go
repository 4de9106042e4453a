package submission

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/pricing"
)

// Submission is one customer's quote session.
type Submission struct {
	ID            string `json:"id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Address       string `json:"address,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	SizeRangeID   string `json:"size_range_id,omitempty"`
	LocationID    string `json:"location_id,omitempty"`

	Status              Status         `json:"status"`
	Totals              pricing.Totals `json:"totals"`
	RequiresBid         bool           `json:"requires_bid"`
	SurchargeApplicable bool           `json:"surcharge_applicable"`
	CouponCode          string         `json:"coupon_code,omitempty"`
	DeclineReason       string         `json:"decline_reason,omitempty"`

	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	EditCount     int              `json:"edit_count"`
	LastEditedAt  *time.Time       `json:"last_edited_at,omitempty"`
	OriginalTotal *decimal.Decimal `json:"original_total,omitempty"`

	Selections []ServiceSelection `json:"selections"`
	AddOns     []SubmissionAddOn  `json:"add_ons"`
}

// Selection returns the selection with id, or nil.
func (s *Submission) Selection(id string) *ServiceSelection {
	for i := range s.Selections {
		if s.Selections[i].ID == id {
			return &s.Selections[i]
		}
	}
	return nil
}

// SelectionForService returns the selection of serviceID, or nil.
func (s *Submission) SelectionForService(serviceID string) *ServiceSelection {
	for i := range s.Selections {
		if s.Selections[i].ServiceID == serviceID {
			return &s.Selections[i]
		}
	}
	return nil
}

// ExpiredAt reports whether the submission is not terminal and past its expiry.
func (s *Submission) ExpiredAt(now time.Time) bool {
	return !s.Status.Terminal() && s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// Clone returns a deep copy.
func (s *Submission) Clone() *Submission {
	out := *s
	out.Selections = make([]ServiceSelection, len(s.Selections))
	for i, sel := range s.Selections {
		out.Selections[i] = sel.clone()
	}
	out.AddOns = append([]SubmissionAddOn(nil), s.AddOns...)
	if s.OriginalTotal != nil {
		v := *s.OriginalTotal
		out.OriginalTotal = &v
	}
	return &out
}

// ServiceSelection is one chosen service within a submission.
type ServiceSelection struct {
	ID                  string             `json:"id"`
	SubmissionID        string             `json:"submission_id"`
	ServiceID           string             `json:"service_id"`
	QuestionAdjustments decimal.Decimal    `json:"question_adjustments"`
	SurchargeAmount     decimal.Decimal    `json:"surcharge_amount"`
	RequiresBid         bool               `json:"requires_bid"`
	SelectedPackageID   string             `json:"selected_package_id,omitempty"`
	SelectedTotal       decimal.Decimal    `json:"selected_total"`
	Responses           []QuestionResponse `json:"responses"`
	Quotes              []pricing.Quote    `json:"quotes"`
	CreatedAt           time.Time          `json:"created_at"`
}

// SelectedQuote returns the selected quote, or nil.
func (s *ServiceSelection) SelectedQuote() *pricing.Quote {
	for i := range s.Quotes {
		if s.Quotes[i].IsSelected {
			return &s.Quotes[i]
		}
	}
	return nil
}

func (s ServiceSelection) clone() ServiceSelection {
	out := s
	out.Responses = make([]QuestionResponse, len(s.Responses))
	for i, r := range s.Responses {
		out.Responses[i] = r.clone()
	}
	out.Quotes = make([]pricing.Quote, len(s.Quotes))
	for i, q := range s.Quotes {
		q.IncludedFeatures = append([]string(nil), q.IncludedFeatures...)
		q.ExcludedFeatures = append([]string(nil), q.ExcludedFeatures...)
		out.Quotes[i] = q
	}
	return out
}

// QuestionResponse is the stored answer to one question of a selection.
type QuestionResponse struct {
	QuestionID       string                `json:"question_id"`
	ParentQuestionID string                `json:"parent_question_id,omitempty"`
	YesNoAnswer      *bool                 `json:"yes_no_answer,omitempty"`
	TextAnswer       *string               `json:"text_answer,omitempty"`
	Options          []OptionResponse      `json:"options,omitempty"`
	SubAnswers       []SubQuestionResponse `json:"sub_answers,omitempty"`
	PriceAdjustment  decimal.Decimal       `json:"price_adjustment"` // display only, averaged across packages
}

// OptionResponse is a stored option choice.
type OptionResponse struct {
	OptionID string `json:"option_id"`
	Quantity int    `json:"quantity"`
}

// SubQuestionResponse is a stored sub-question answer.
type SubQuestionResponse struct {
	SubQuestionID string `json:"sub_question_id"`
	Answer        bool   `json:"answer"`
}

// Input converts the stored response back to a response payload.
func (r QuestionResponse) Input() pricing.ResponseInput {
	in := pricing.ResponseInput{
		QuestionID:       r.QuestionID,
		ParentQuestionID: r.ParentQuestionID,
		YesNoAnswer:      r.YesNoAnswer,
		TextAnswer:       r.TextAnswer,
	}
	for _, o := range r.Options {
		q := o.Quantity
		in.SelectedOptions = append(in.SelectedOptions, pricing.OptionSelection{OptionID: o.OptionID, Quantity: &q})
	}
	for _, s := range r.SubAnswers {
		in.SubQuestionAnswers = append(in.SubQuestionAnswers, pricing.SubAnswer{SubQuestionID: s.SubQuestionID, Answer: s.Answer})
	}
	return in
}

func (r QuestionResponse) clone() QuestionResponse {
	out := r
	if r.YesNoAnswer != nil {
		v := *r.YesNoAnswer
		out.YesNoAnswer = &v
	}
	if r.TextAnswer != nil {
		v := *r.TextAnswer
		out.TextAnswer = &v
	}
	out.Options = append([]OptionResponse(nil), r.Options...)
	out.SubAnswers = append([]SubQuestionResponse(nil), r.SubAnswers...)
	return out
}

// fromResponse builds the stored form of a validated response.
func fromResponse(r pricing.Response, display decimal.Decimal) QuestionResponse {
	in := r.ToInput()
	qr := QuestionResponse{
		QuestionID:       in.QuestionID,
		ParentQuestionID: in.ParentQuestionID,
		YesNoAnswer:      in.YesNoAnswer,
		TextAnswer:       in.TextAnswer,
		PriceAdjustment:  display,
	}
	for _, o := range in.SelectedOptions {
		qr.Options = append(qr.Options, OptionResponse{OptionID: o.OptionID, Quantity: *o.Quantity})
	}
	for _, s := range in.SubQuestionAnswers {
		qr.SubAnswers = append(qr.SubAnswers, SubQuestionResponse{SubQuestionID: s.SubQuestionID, Answer: s.Answer})
	}
	return qr
}

// SubmissionAddOn is an add-on attached to a submission.
type SubmissionAddOn struct {
	AddOnID  string `json:"add_on_id"`
	Quantity int    `json:"quantity"`
}

// EditHistoryEntry records one edit of a submitted submission.
type EditHistoryEntry struct {
	ID             string          `json:"id"`
	SubmissionID   string          `json:"submission_id"`
	Sequence       int             `json:"sequence"`
	EditedAt       time.Time       `json:"edited_at"`
	SelectionID    string          `json:"selection_id"`
	ServiceID      string          `json:"service_id"`
	OldFinalTotal  decimal.Decimal `json:"old_final_total"`
	NewFinalTotal  decimal.Decimal `json:"new_final_total"`
	OldAdjustments decimal.Decimal `json:"old_adjustments"`
	NewAdjustments decimal.Decimal `json:"new_adjustments"`
	OldPackageID   string          `json:"old_package_id,omitempty"`
	NewPackageID   string          `json:"new_package_id,omitempty"`
	Changed        []string        `json:"changed"`
	Added          []string        `json:"added"`
	Removed        []string        `json:"removed"`
	ResponsePatch  json.RawMessage `json:"response_patch,omitempty"` // RFC 7386 merge patch keyed by question id
	Warnings       []string        `json:"warnings,omitempty"`
}
