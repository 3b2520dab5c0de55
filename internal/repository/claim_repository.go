package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clearhours/claims-core/internal/models"
	"github.com/clearhours/claims-core/internal/workflow"
	appErrors "github.com/clearhours/claims-core/pkg/errors"
)

// ClaimRepository is the durable, concurrency-safe custodian of the claim
// collection. The whole collection lives in memory and is mirrored to a
// single JSON file after every mutation; one mutex serialises every
// operation, disk write included, so no two mutations interleave and a
// reader never observes a record mid-update.
type ClaimRepository struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	claims []*models.Claim
	nextID int
}

// NewClaimRepository loads the collection from path, starting empty when the
// file is absent. A file that fails to parse resets the store to empty; that
// is a deliberate data-loss-tolerant policy, logged loudly.
func NewClaimRepository(path string, logger *zap.Logger) (*ClaimRepository, error) {
	if path == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "store path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ClaimRepository{path: path, logger: logger, nextID: 1}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Add assigns the next id, stamps the submission time, forces both statuses
// to pending and persists. The stored record is a copy of the argument.
func (r *ClaimRepository) Add(claim *models.Claim) (int, error) {
	if claim == nil {
		return 0, appErrors.Clone(appErrors.ErrInvalidArgument, "claim is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := claim.Clone()
	stored.ID = r.nextID
	stored.SubmittedOn = time.Now().UTC()
	stored.VerificationStatus = models.VerificationPending
	stored.ApprovalStatus = models.ApprovalPending
	stored.VerifiedBy = models.ActorSentinel
	stored.VerifiedOn = nil
	stored.ApprovedBy = models.ActorSentinel
	stored.ApprovedOn = nil
	stored.Normalize()

	r.claims = append(r.claims, stored)
	if err := r.persist(); err != nil {
		r.claims = r.claims[:len(r.claims)-1]
		return 0, err
	}
	r.nextID++

	return stored.ID, nil
}

// GetByID returns a copy of the matching claim, or nil when no claim carries
// the id. Absence is not an error.
func (r *ClaimRepository) GetByID(id int) *models.Claim {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(id).Clone()
}

// GetAll returns copies of every claim in insertion order.
func (r *ClaimRepository) GetAll() []models.Claim {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Claim, 0, len(r.claims))
	for _, c := range r.claims {
		out = append(out, *c.Clone())
	}
	return out
}

// GetByPeriod returns a copy of the first claim whose period key matches,
// compared case-insensitively, or nil when none does.
func (r *ClaimRepository) GetByPeriod(period string) *models.Claim {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.claims {
		if strings.EqualFold(c.Period, period) {
			return c.Clone()
		}
	}
	return nil
}

// UpdateVerificationStatus transitions the first-stage review outcome. The
// transition guard runs inside the lock, so a claim can never be verified
// twice by racing callers. Unknown ids return NOT_FOUND.
func (r *ClaimRepository) UpdateVerificationStatus(id int, status models.VerificationStatus, actorName, actorRole string) error {
	if err := workflow.ValidateActor(actorName); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.find(id)
	if c == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("claim %d not found", id))
	}
	if err := workflow.EnsureVerificationAllowed(c, status); err != nil {
		return err
	}

	prev := c.Clone()
	now := time.Now().UTC()
	c.VerificationStatus = status
	c.VerifiedBy = workflow.FormatActor(actorName, actorRole)
	c.VerifiedOn = &now

	if err := r.persist(); err != nil {
		*c = *prev
		return err
	}
	return nil
}

// UpdateApprovalStatus transitions the second-stage review outcome. Approval
// is only legal once verification is exactly verified.
func (r *ClaimRepository) UpdateApprovalStatus(id int, status models.ApprovalStatus, actorName, actorRole string) error {
	if err := workflow.ValidateActor(actorName); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.find(id)
	if c == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("claim %d not found", id))
	}
	if err := workflow.EnsureApprovalAllowed(c, status); err != nil {
		return err
	}

	prev := c.Clone()
	now := time.Now().UTC()
	c.ApprovalStatus = status
	c.ApprovedBy = workflow.FormatActor(actorName, actorRole)
	c.ApprovedOn = &now

	if err := r.persist(); err != nil {
		*c = *prev
		return err
	}
	return nil
}

// AppendDocuments appends complete original/ciphertext name pairs to the
// claim's document sequence.
func (r *ClaimRepository) AppendDocuments(id int, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.find(id)
	if c == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("claim %d not found", id))
	}

	prev := c.Clone()
	c.Documents = append(c.Documents, docs...)
	if err := r.persist(); err != nil {
		*c = *prev
		return err
	}
	return nil
}

// AppendOriginalDocuments records user-facing file names. Names fill the
// original side of pairs whose ciphertext name arrived first; leftovers open
// new pairs. Either call order yields aligned pairs.
func (r *ClaimRepository) AppendOriginalDocuments(id int, names []string) error {
	return r.appendNames(id, names, func(d *models.Document) *string { return &d.OriginalName })
}

// AppendEncryptedDocuments records ciphertext file names, pairing them with
// original names the same way AppendOriginalDocuments does.
func (r *ClaimRepository) AppendEncryptedDocuments(id int, names []string) error {
	return r.appendNames(id, names, func(d *models.Document) *string { return &d.EncryptedName })
}

func (r *ClaimRepository) appendNames(id int, names []string, side func(*models.Document) *string) error {
	if len(names) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.find(id)
	if c == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("claim %d not found", id))
	}

	prev := c.Clone()
	for _, name := range names {
		filled := false
		for i := range c.Documents {
			slot := side(&c.Documents[i])
			if *slot == "" {
				*slot = name
				filled = true
				break
			}
		}
		if !filled {
			var d models.Document
			*side(&d) = name
			c.Documents = append(c.Documents, d)
		}
	}

	if err := r.persist(); err != nil {
		*c = *prev
		return err
	}
	return nil
}

// VerificationPendingCount tallies claims awaiting first-stage review.
func (r *ClaimRepository) VerificationPendingCount() int {
	return r.countVerification(models.VerificationPending)
}

// VerifiedCount tallies claims that passed first-stage review.
func (r *ClaimRepository) VerifiedCount() int {
	return r.countVerification(models.VerificationVerified)
}

// VerificationRejectedCount tallies claims rejected at first-stage review.
func (r *ClaimRepository) VerificationRejectedCount() int {
	return r.countVerification(models.VerificationRejected)
}

// ApprovalPendingCount tallies claims awaiting second-stage review.
func (r *ClaimRepository) ApprovalPendingCount() int {
	return r.countApproval(models.ApprovalPending)
}

// ApprovedCount tallies claims cleared for payment.
func (r *ClaimRepository) ApprovedCount() int {
	return r.countApproval(models.ApprovalApproved)
}

// ApprovalRejectedCount tallies claims rejected at second-stage review.
func (r *ClaimRepository) ApprovalRejectedCount() int {
	return r.countApproval(models.ApprovalRejected)
}

func (r *ClaimRepository) countVerification(status models.VerificationStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.claims {
		if c.VerificationStatus == status {
			n++
		}
	}
	return n
}

func (r *ClaimRepository) countApproval(status models.ApprovalStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.claims {
		if c.ApprovalStatus == status {
			n++
		}
	}
	return n
}

func (r *ClaimRepository) find(id int) *models.Claim {
	for _, c := range r.claims {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// persist rewrites the full collection. The temp-file-then-rename dance keeps
// the rewrite atomic: a crash mid-write leaves the previous file intact.
func (r *ClaimRepository) persist() error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "prepare store directory")
	}

	data, err := json.MarshalIndent(r.claims, "", "  ")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode claims")
	}

	tmp, err := os.CreateTemp(dir, ".claims-*.json")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create temp store file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		_ = os.Remove(tmpName)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "write store file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "close store file")
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "replace store file")
	}
	return nil
}

func (r *ClaimRepository) load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		r.claims = []*models.Claim{}
		r.nextID = 1
		return nil
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read store file")
	}

	var claims []*models.Claim
	if err := json.Unmarshal(data, &claims); err != nil {
		r.logger.Warn("claim store file is corrupt, resetting to empty",
			zap.String("path", r.path), zap.Error(err))
		r.claims = []*models.Claim{}
		r.nextID = 1
		return nil
	}

	maxID := 0
	for _, c := range claims {
		c.Normalize()
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	r.claims = claims
	if r.claims == nil {
		r.claims = []*models.Claim{}
	}
	r.nextID = maxID + 1
	return nil
}
