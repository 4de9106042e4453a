package submission

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a submission.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusResponsesCompleted Status = "responses_completed"
	StatusPackagesSelected   Status = "packages_selected"
	StatusSubmitted          Status = "submitted"
	StatusDeclined           Status = "declined"
	StatusExpired            Status = "expired"
)

// Open reports whether the submission is still being filled in.
func (s Status) Open() bool {
	switch s {
	case StatusDraft, StatusResponsesCompleted, StatusPackagesSelected:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusExpired
}

var transitions = map[Status][]Status{
	StatusDraft:              {StatusResponsesCompleted, StatusSubmitted, StatusDeclined, StatusExpired},
	StatusResponsesCompleted: {StatusPackagesSelected, StatusSubmitted, StatusDeclined, StatusExpired},
	StatusPackagesSelected:   {StatusSubmitted, StatusDeclined, StatusExpired},
	StatusSubmitted:          {StatusDeclined, StatusExpired},
}

// CanTransition reports whether from -> to is a valid transition.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves sub to status to, or returns an InvalidTransitionError.
func Transition(sub *Submission, to Status) error {
	if !CanTransition(sub.Status, to) {
		return &InvalidTransitionError{From: sub.Status, To: to}
	}
	sub.Status = to
	return nil
}

// InvalidTransitionError is returned when a status change or operation is
// not allowed from the current status.
type InvalidTransitionError struct {
	From Status
	To   Status // empty when an operation, not a transition, was rejected
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("%s not allowed in status %s", e.Op, e.From)
}

var (
	// ErrNotFound is returned when a submission or selection does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateService is returned when a service is already selected.
	ErrDuplicateService = errors.New("service already selected")

	// ErrCouponInvalid is returned for unknown, inactive or expired coupons.
	ErrCouponInvalid = errors.New("invalid coupon")

	// ErrEditNotAllowed is returned when editing a submission that is not submitted.
	ErrEditNotAllowed = errors.New("edits are only allowed on submitted submissions")

	// ErrPackageNotSelected is returned on final submission when no service
	// has a selected package.
	ErrPackageNotSelected = errors.New("no service has a selected package")

	// ErrUnknownPackage is returned when a package has no quote in the selection.
	ErrUnknownPackage = errors.New("package has no quote")
)
