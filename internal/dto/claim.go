package dto

import (
	"io"

	"github.com/shopspring/decimal"
)

// SubmitClaimRequest carries a contractor's work claim for one period.
type SubmitClaimRequest struct {
	SubmitterID string          `json:"submitterId" validate:"required"`
	Period      string          `json:"period"`
	HoursWorked int             `json:"hoursWorked" validate:"required,gte=1,lte=999"`
	HourlyRate  decimal.Decimal `json:"hourlyRate" validate:"-"`
}

// SubmitResult reports the stored claim and any hour-cap adjustment. A
// non-empty Advisory means the payable hours were reduced; submission still
// succeeded.
type SubmitResult struct {
	ClaimID     int    `json:"claimId"`
	HoursWorked int    `json:"hoursWorked"`
	Capped      bool   `json:"capped"`
	Advisory    string `json:"advisory,omitempty"`
}

// Upload is one evidence file offered for attachment.
type Upload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// SkippedUpload names a file the vault refused and why.
type SkippedUpload struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AttachResult lists what was encrypted into the vault and what was not.
type AttachResult struct {
	EncryptedNames []string        `json:"encryptedNames"`
	Skipped        []SkippedUpload `json:"skipped,omitempty"`
}

// ClaimCounts is a point-in-time snapshot of the six review tallies.
type ClaimCounts struct {
	VerificationPending  int `json:"verificationPending"`
	Verified             int `json:"verified"`
	VerificationRejected int `json:"verificationRejected"`
	ApprovalPending      int `json:"approvalPending"`
	Approved             int `json:"approved"`
	ApprovalRejected     int `json:"approvalRejected"`
}
