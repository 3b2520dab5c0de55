package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clearhours/claims-core/internal/repository"
	"github.com/clearhours/claims-core/internal/service"
	"github.com/clearhours/claims-core/pkg/cipher"
	"github.com/clearhours/claims-core/pkg/config"
	"github.com/clearhours/claims-core/pkg/logger"
	"github.com/clearhours/claims-core/pkg/metrics"
	"github.com/clearhours/claims-core/pkg/storage"
)

const usage = `claimsctl <command>

commands:
  counts                         print the six review tallies
  list                           print every claim
  show <id>                      print one claim
  decrypt <id> <encryptedName>   write a document's plaintext to stdout
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	repo, err := repository.NewClaimRepository(cfg.Store.Path, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open claim store", "error", err)
	}

	keys, err := cipher.NewStaticKeyProvider(cfg.Cipher.Secret, cfg.Cipher.Salt)
	if err != nil {
		logr.Sugar().Fatalw("failed to derive cipher keys", "error", err)
	}
	fileCipher, err := cipher.NewFileCipher(keys)
	if err != nil {
		logr.Sugar().Fatalw("failed to init cipher", "error", err)
	}

	vault, err := storage.NewDocumentVault(cfg.Uploads.Dir, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedExtensions)
	if err != nil {
		logr.Sugar().Fatalw("failed to open document vault", "error", err)
	}

	svc := service.NewClaimService(repo, fileCipher, vault, validator.New(), logr,
		metrics.New(prometheus.NewRegistry()), service.ClaimServiceConfig{DefaultHourCap: cfg.Claims.DefaultHourCap})

	if err := run(svc, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "claimsctl:", err)
		os.Exit(1)
	}
}

func run(svc *service.ClaimService, args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	ctx := context.Background()

	switch args[0] {
	case "counts":
		counts := svc.Counts(ctx)
		fmt.Printf("verification: pending=%d verified=%d rejected=%d\n",
			counts.VerificationPending, counts.Verified, counts.VerificationRejected)
		fmt.Printf("approval:     pending=%d approved=%d rejected=%d\n",
			counts.ApprovalPending, counts.Approved, counts.ApprovalRejected)
		return nil

	case "list":
		for _, c := range svc.List(ctx) {
			fmt.Printf("#%d %s %s %dh @ %s = %s [%s/%s] docs=%d\n",
				c.ID, c.SubmitterID, c.Period, c.HoursWorked, c.HourlyRate.String(),
				c.TotalAmount().String(), c.VerificationStatus, c.ApprovalStatus, len(c.Documents))
		}
		return nil

	case "show":
		if len(args) < 2 {
			return fmt.Errorf("usage: claimsctl show <id>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid claim id %q", args[1])
		}
		c := svc.Get(ctx, id)
		if c == nil {
			return fmt.Errorf("claim %d not found", id)
		}
		fmt.Printf("claim %d\n  submitter: %s\n  period: %s\n  hours: %d @ %s (total %s)\n",
			c.ID, c.SubmitterID, c.Period, c.HoursWorked, c.HourlyRate.String(), c.TotalAmount().String())
		fmt.Printf("  verification: %s by %s\n  approval: %s by %s\n",
			c.VerificationStatus, c.VerifiedBy, c.ApprovalStatus, c.ApprovedBy)
		for _, d := range c.Documents {
			fmt.Printf("  document: %s -> %s\n", d.OriginalName, d.EncryptedName)
		}
		return nil

	case "decrypt":
		if len(args) < 3 {
			return fmt.Errorf("usage: claimsctl decrypt <id> <encryptedName>")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid claim id %q", args[1])
		}
		_, plaintext, err := svc.OpenDocument(ctx, id, args[2])
		if err != nil {
			return err
		}
		_, err = io.Copy(os.Stdout, plaintext)
		return err

	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}
