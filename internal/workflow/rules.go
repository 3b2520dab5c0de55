// Package workflow holds the pure rules governing claim lifecycle: which
// status transitions are legal, how acting parties are recorded, and how the
// per-period hour cap adjusts a new submission. The rules operate on claim
// state only; the repository applies them under its lock.
package workflow

import (
	"fmt"
	"strings"

	"github.com/clearhours/claims-core/internal/models"
	appErrors "github.com/clearhours/claims-core/pkg/errors"
)

// EnsureVerificationAllowed guards the verification machine. Verified and
// Rejected are both terminal; only a pending claim may transition.
func EnsureVerificationAllowed(c *models.Claim, next models.VerificationStatus) error {
	switch next {
	case models.VerificationVerified, models.VerificationRejected:
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown verification status %q", next))
	}
	if c.VerificationStatus != models.VerificationPending {
		return appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("claim %d verification already %s", c.ID, c.VerificationStatus))
	}
	return nil
}

// EnsureApprovalAllowed guards the approval machine. A claim cannot be
// approved or rejected for payment before it has been verified.
func EnsureApprovalAllowed(c *models.Claim, next models.ApprovalStatus) error {
	switch next {
	case models.ApprovalApproved, models.ApprovalRejected:
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown approval status %q", next))
	}
	if c.VerificationStatus != models.VerificationVerified {
		return appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("claim %d is not verified (verification %s)", c.ID, c.VerificationStatus))
	}
	if c.ApprovalStatus != models.ApprovalPending {
		return appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("claim %d approval already %s", c.ID, c.ApprovalStatus))
	}
	return nil
}

// ValidateActor rejects blank or whitespace-only actor names before any
// mutation takes place.
func ValidateActor(name string) error {
	if strings.TrimSpace(name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "actor name is required")
	}
	return nil
}

// FormatActor renders the attribution recorded on a transition.
func FormatActor(name, role string) string {
	return fmt.Sprintf("%s (%s)", name, role)
}

// CapResult describes the outcome of applying the hour cap to a submission.
type CapResult struct {
	Hours    int
	Capped   bool
	Advisory string
}

// ApplyHourCap sums hours already claimed by the submitter for the same
// period key and reduces the new claim's hours so the cap is never exceeded.
// The correction is silent in the sense that submission still succeeds,
// possibly with zero payable hours; the advisory tells the caller what
// happened.
func ApplyHourCap(existing []models.Claim, submitterID, period string, hours, cap int) CapResult {
	if cap <= 0 {
		return CapResult{Hours: hours}
	}

	claimed := 0
	for i := range existing {
		c := &existing[i]
		if c.SubmitterID == submitterID && strings.EqualFold(c.Period, period) {
			claimed += c.HoursWorked
		}
	}

	if claimed+hours <= cap {
		return CapResult{Hours: hours}
	}

	remaining := cap - claimed
	if remaining < 0 {
		remaining = 0
	}
	return CapResult{
		Hours:  remaining,
		Capped: true,
		Advisory: fmt.Sprintf(
			"hour cap of %d exceeded for period %q: payable hours reduced to %d", cap, period, remaining),
	}
}
