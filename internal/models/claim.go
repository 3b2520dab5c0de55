package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerificationStatus is the first-stage review outcome.
type VerificationStatus string

// ApprovalStatus is the second-stage review outcome, gating payment.
type ApprovalStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"

	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ActorSentinel marks an attribution field that has not been set yet.
const ActorSentinel = "-"

// Document pairs an uploaded file's user-facing name with the name of its
// encrypted-at-rest representation. Pairs are appended, never removed or
// reordered.
type Document struct {
	OriginalName  string `json:"originalName"`
	EncryptedName string `json:"encryptedName"`
}

// Complete reports whether both sides of the pair have been recorded.
func (d Document) Complete() bool {
	return d.OriginalName != "" && d.EncryptedName != ""
}

// Claim is a submitted record of hours worked, pending two independent
// sign-offs. Instances handed out by the repository are defensive copies;
// mutating them does not touch the stored collection.
type Claim struct {
	ID          int             `json:"id"`
	SubmitterID string          `json:"submitterId"`
	Period      string          `json:"period"`
	HoursWorked int             `json:"hoursWorked"`
	HourlyRate  decimal.Decimal `json:"hourlyRate"`

	VerificationStatus VerificationStatus `json:"verificationStatus"`
	ApprovalStatus     ApprovalStatus     `json:"approvalStatus"`

	SubmittedOn time.Time  `json:"submittedOn"`
	VerifiedBy  string     `json:"verifiedBy"`
	VerifiedOn  *time.Time `json:"verifiedOn,omitempty"`
	ApprovedBy  string     `json:"approvedBy"`
	ApprovedOn  *time.Time `json:"approvedOn,omitempty"`

	Documents []Document `json:"documents"`
}

// TotalAmount is always derived, never stored.
func (c *Claim) TotalAmount() decimal.Decimal {
	return c.HourlyRate.Mul(decimal.NewFromInt(int64(c.HoursWorked)))
}

// OriginalDocuments returns the user-facing file names in upload order.
func (c *Claim) OriginalDocuments() []string {
	names := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		names = append(names, d.OriginalName)
	}
	return names
}

// EncryptedDocuments returns the ciphertext file names in upload order.
func (c *Claim) EncryptedDocuments() []string {
	names := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		names = append(names, d.EncryptedName)
	}
	return names
}

// DocumentByEncryptedName finds the pair carrying the given ciphertext name.
func (c *Claim) DocumentByEncryptedName(name string) (Document, bool) {
	for _, d := range c.Documents {
		if d.EncryptedName == name {
			return d, true
		}
	}
	return Document{}, false
}

// Clone returns a deep copy so external code cannot reach the stored record.
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Documents = make([]Document, len(c.Documents))
	copy(clone.Documents, c.Documents)
	if c.VerifiedOn != nil {
		t := *c.VerifiedOn
		clone.VerifiedOn = &t
	}
	if c.ApprovedOn != nil {
		t := *c.ApprovedOn
		clone.ApprovedOn = &t
	}
	return &clone
}

// Normalize backfills zero values left by older payloads or sparse callers.
func (c *Claim) Normalize() {
	if c.Documents == nil {
		c.Documents = []Document{}
	}
	if c.VerifiedBy == "" {
		c.VerifiedBy = ActorSentinel
	}
	if c.ApprovedBy == "" {
		c.ApprovedBy = ActorSentinel
	}
	if c.VerificationStatus == "" {
		c.VerificationStatus = VerificationPending
	}
	if c.ApprovalStatus == "" {
		c.ApprovalStatus = ApprovalPending
	}
}
