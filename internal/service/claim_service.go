package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearhours/claims-core/internal/dto"
	"github.com/clearhours/claims-core/internal/models"
	"github.com/clearhours/claims-core/internal/workflow"
	appErrors "github.com/clearhours/claims-core/pkg/errors"
	"github.com/clearhours/claims-core/pkg/metrics"
)

type claimStore interface {
	Add(claim *models.Claim) (int, error)
	GetByID(id int) *models.Claim
	GetAll() []models.Claim
	GetByPeriod(period string) *models.Claim
	UpdateVerificationStatus(id int, status models.VerificationStatus, actorName, actorRole string) error
	UpdateApprovalStatus(id int, status models.ApprovalStatus, actorName, actorRole string) error
	AppendDocuments(id int, docs []models.Document) error
	VerificationPendingCount() int
	VerifiedCount() int
	VerificationRejectedCount() int
	ApprovalPendingCount() int
	ApprovedCount() int
	ApprovalRejectedCount() int
}

type fileCipher interface {
	Encrypt(input io.Reader, outputPath string) error
	Decrypt(inputPath string) (*bytes.Buffer, error)
}

type documentVault interface {
	Screen(fileName string, size int64) (bool, string)
	PathFor(claimID int, encryptedName string) (string, error)
	Resolve(claimID int, encryptedName string) (string, error)
}

// CapResolver returns the maximum payable hours per period for a submitter.
type CapResolver func(submitterID string) int

// ClaimServiceConfig tunes submission behaviour.
type ClaimServiceConfig struct {
	DefaultHourCap int
	CapResolver    CapResolver
}

// ClaimService orchestrates the claim lifecycle: submission with hour-cap
// enforcement, evidence encryption into the vault, guarded sign-off
// transitions and review tallies.
type ClaimService struct {
	store     claimStore
	cipher    fileCipher
	vault     documentVault
	capFor    CapResolver
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewClaimService constructs a ClaimService.
func NewClaimService(store claimStore, cipher fileCipher, vault documentVault, validate *validator.Validate, logger *zap.Logger, m *metrics.Metrics, cfg ClaimServiceConfig) *ClaimService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	capFor := cfg.CapResolver
	if capFor == nil {
		capFor = func(string) int { return cfg.DefaultHourCap }
	}
	return &ClaimService{
		store:     store,
		cipher:    cipher,
		vault:     vault,
		capFor:    capFor,
		validator: validate,
		logger:    logger,
		metrics:   m,
	}
}

// Submit validates the request, applies the submitter's hour cap for the
// period and persists the claim with both statuses pending. The result
// carries a non-fatal advisory when the cap reduced the payable hours.
func (s *ClaimService) Submit(ctx context.Context, req dto.SubmitClaimRequest) (*dto.SubmitResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim submission")
	}
	if !req.HourlyRate.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hourly rate must be positive")
	}

	period := strings.TrimSpace(req.Period)
	if period == "" {
		period = time.Now().UTC().Format("January 2006")
	}

	capped := workflow.ApplyHourCap(s.store.GetAll(), req.SubmitterID, period, req.HoursWorked, s.capFor(req.SubmitterID))

	claim := &models.Claim{
		SubmitterID: req.SubmitterID,
		Period:      period,
		HoursWorked: capped.Hours,
		HourlyRate:  req.HourlyRate,
	}

	id, err := s.store.Add(claim)
	if err != nil {
		return nil, err
	}

	s.metrics.ClaimsSubmitted.Inc()
	if capped.Capped {
		s.metrics.HourCapAdjustments.Inc()
		s.logger.Info("hour cap adjusted submission",
			zap.Int("claim_id", id),
			zap.String("submitter", req.SubmitterID),
			zap.String("period", period),
			zap.Int("requested_hours", req.HoursWorked),
			zap.Int("payable_hours", capped.Hours))
	}

	return &dto.SubmitResult{
		ClaimID:     id,
		HoursWorked: capped.Hours,
		Capped:      capped.Capped,
		Advisory:    capped.Advisory,
	}, nil
}

// AttachDocuments screens each upload, encrypts accepted files into the
// claim's vault directory under a freshly generated ciphertext name and
// appends the name pairs to the claim record. Refused files are reported,
// not fatal.
func (s *ClaimService) AttachDocuments(ctx context.Context, claimID int, uploads []dto.Upload) (*dto.AttachResult, error) {
	claim := s.store.GetByID(claimID)
	if claim == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("claim %d not found", claimID))
	}

	result := &dto.AttachResult{}
	docs := make([]models.Document, 0, len(uploads))

	for _, upload := range uploads {
		if upload.Content == nil {
			return nil, appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("upload %q has no content", upload.Name))
		}
		if ok, reason := s.vault.Screen(upload.Name, upload.Size); !ok {
			s.logger.Warn("upload refused",
				zap.Int("claim_id", claimID), zap.String("file", upload.Name), zap.String("reason", reason))
			result.Skipped = append(result.Skipped, dto.SkippedUpload{Name: upload.Name, Reason: reason})
			continue
		}

		encryptedName := fmt.Sprintf("%s%s.enc", uuid.NewString(), strings.ToLower(filepath.Ext(upload.Name)))
		path, err := s.vault.PathFor(claimID, encryptedName)
		if err != nil {
			return nil, err
		}
		if err := s.cipher.Encrypt(upload.Content, path); err != nil {
			return nil, err
		}

		s.metrics.DocumentsEncrypted.Inc()
		docs = append(docs, models.Document{OriginalName: upload.Name, EncryptedName: encryptedName})
		result.EncryptedNames = append(result.EncryptedNames, encryptedName)
	}

	if err := s.store.AppendDocuments(claimID, docs); err != nil {
		return nil, err
	}
	return result, nil
}

// OpenDocument decrypts one stored evidence file and returns its plaintext
// together with the user-facing name it was uploaded under.
func (s *ClaimService) OpenDocument(ctx context.Context, claimID int, encryptedName string) (string, *bytes.Buffer, error) {
	claim := s.store.GetByID(claimID)
	if claim == nil {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("claim %d not found", claimID))
	}
	doc, ok := claim.DocumentByEncryptedName(encryptedName)
	if !ok {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("document %q not found on claim %d", encryptedName, claimID))
	}

	path, err := s.vault.Resolve(claimID, encryptedName)
	if err != nil {
		return "", nil, err
	}
	plaintext, err := s.cipher.Decrypt(path)
	if err != nil {
		s.metrics.DecryptFailures.Inc()
		return "", nil, err
	}
	return doc.OriginalName, plaintext, nil
}

// UpdateVerification applies a first-stage sign-off.
func (s *ClaimService) UpdateVerification(ctx context.Context, claimID int, status models.VerificationStatus, actorName, actorRole string) error {
	if err := workflow.ValidateActor(actorName); err != nil {
		return err
	}
	if err := s.store.UpdateVerificationStatus(claimID, status, actorName, actorRole); err != nil {
		return err
	}
	s.metrics.Transitions.WithLabelValues("verification", string(status)).Inc()
	s.logger.Info("verification updated",
		zap.Int("claim_id", claimID), zap.String("status", string(status)), zap.String("actor", actorName))
	return nil
}

// UpdateApproval applies a second-stage sign-off; illegal unless the claim
// is already verified.
func (s *ClaimService) UpdateApproval(ctx context.Context, claimID int, status models.ApprovalStatus, actorName, actorRole string) error {
	if err := workflow.ValidateActor(actorName); err != nil {
		return err
	}
	if err := s.store.UpdateApprovalStatus(claimID, status, actorName, actorRole); err != nil {
		return err
	}
	s.metrics.Transitions.WithLabelValues("approval", string(status)).Inc()
	s.logger.Info("approval updated",
		zap.Int("claim_id", claimID), zap.String("status", string(status)), zap.String("actor", actorName))
	return nil
}

// Get returns one claim by id, nil when absent.
func (s *ClaimService) Get(ctx context.Context, claimID int) *models.Claim {
	return s.store.GetByID(claimID)
}

// List returns every claim in insertion order.
func (s *ClaimService) List(ctx context.Context) []models.Claim {
	return s.store.GetAll()
}

// FindByPeriod returns the first claim whose period key matches, ignoring
// case.
func (s *ClaimService) FindByPeriod(ctx context.Context, period string) *models.Claim {
	return s.store.GetByPeriod(period)
}

// Counts snapshots the six review tallies.
func (s *ClaimService) Counts(ctx context.Context) dto.ClaimCounts {
	return dto.ClaimCounts{
		VerificationPending:  s.store.VerificationPendingCount(),
		Verified:             s.store.VerifiedCount(),
		VerificationRejected: s.store.VerificationRejectedCount(),
		ApprovalPending:      s.store.ApprovalPendingCount(),
		Approved:             s.store.ApprovedCount(),
		ApprovalRejected:     s.store.ApprovalRejectedCount(),
	}
}
