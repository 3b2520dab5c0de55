package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalAmountIsDerived(t *testing.T) {
	c := &Claim{HoursWorked: 10, HourlyRate: decimal.NewFromInt(50)}
	assert.True(t, c.TotalAmount().Equal(decimal.NewFromInt(500)))

	c.HoursWorked = 0
	assert.True(t, c.TotalAmount().IsZero())
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now().UTC()
	c := &Claim{
		ID:         1,
		Documents:  []Document{{OriginalName: "a.pdf", EncryptedName: "x.enc"}},
		VerifiedOn: &now,
	}

	clone := c.Clone()
	clone.Documents[0].OriginalName = "tampered"
	*clone.VerifiedOn = now.Add(time.Hour)

	assert.Equal(t, "a.pdf", c.Documents[0].OriginalName)
	assert.True(t, c.VerifiedOn.Equal(now))

	var nilClaim *Claim
	assert.Nil(t, nilClaim.Clone())
}

func TestNormalizeBackfills(t *testing.T) {
	c := &Claim{}
	c.Normalize()

	assert.NotNil(t, c.Documents)
	assert.Equal(t, ActorSentinel, c.VerifiedBy)
	assert.Equal(t, ActorSentinel, c.ApprovedBy)
	assert.Equal(t, VerificationPending, c.VerificationStatus)
	assert.Equal(t, ApprovalPending, c.ApprovalStatus)
}

func TestStatusJSONEncoding(t *testing.T) {
	c := &Claim{VerificationStatus: VerificationVerified, ApprovalStatus: ApprovalPending}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"verificationStatus":"verified"`)
	assert.Contains(t, string(data), `"approvalStatus":"pending"`)
}

func TestDocumentLookups(t *testing.T) {
	c := &Claim{Documents: []Document{
		{OriginalName: "a.pdf", EncryptedName: "x.enc"},
		{OriginalName: "b.png", EncryptedName: "y.enc"},
	}}

	doc, ok := c.DocumentByEncryptedName("y.enc")
	require.True(t, ok)
	assert.Equal(t, "b.png", doc.OriginalName)

	_, ok = c.DocumentByEncryptedName("z.enc")
	assert.False(t, ok)

	assert.Equal(t, []string{"a.pdf", "b.png"}, c.OriginalDocuments())
	assert.Equal(t, []string{"x.enc", "y.enc"}, c.EncryptedDocuments())
}
