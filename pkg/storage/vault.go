package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appErrors "github.com/clearhours/claims-core/pkg/errors"
)

// DocumentVault lays encrypted claim documents out on disk, one directory
// per claim: {baseDir}/claim-{id}/{encryptedFileName}. Directories are
// created lazily on first upload.
type DocumentVault struct {
	baseDir           string
	maxFileSizeBytes  int64
	allowedExtensions map[string]struct{}
}

// NewDocumentVault ensures the base directory exists and returns a handle.
func NewDocumentVault(baseDir string, maxFileSizeBytes int64, allowedExtensions []string) (*DocumentVault, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create uploads directory")
	}

	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(strings.TrimSpace(ext))] = struct{}{}
	}
	return &DocumentVault{
		baseDir:           baseDir,
		maxFileSizeBytes:  maxFileSizeBytes,
		allowedExtensions: allowed,
	}, nil
}

// Screen reports whether an upload with the given name and size may enter
// the vault, with a reason when it may not.
func (v *DocumentVault) Screen(fileName string, size int64) (bool, string) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(v.allowedExtensions) > 0 {
		if _, ok := v.allowedExtensions[ext]; !ok {
			return false, fmt.Sprintf("extension %q is not allowed", ext)
		}
	}
	if v.maxFileSizeBytes > 0 && size > v.maxFileSizeBytes {
		return false, fmt.Sprintf("file exceeds %d bytes", v.maxFileSizeBytes)
	}
	return true, ""
}

// PathFor resolves the on-disk location of a ciphertext file, creating the
// claim's directory when missing. File names must not escape it.
func (v *DocumentVault) PathFor(claimID int, encryptedName string) (string, error) {
	if claimID <= 0 {
		return "", appErrors.Clone(appErrors.ErrInvalidArgument, "claim id must be positive")
	}
	if encryptedName == "" || encryptedName != filepath.Base(encryptedName) {
		return "", appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("invalid document name %q", encryptedName))
	}

	dir := filepath.Join(v.baseDir, fmt.Sprintf("claim-%d", claimID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create claim directory")
	}
	return filepath.Join(dir, encryptedName), nil
}

// Resolve is PathFor without the directory side effect, for reads.
func (v *DocumentVault) Resolve(claimID int, encryptedName string) (string, error) {
	if claimID <= 0 {
		return "", appErrors.Clone(appErrors.ErrInvalidArgument, "claim id must be positive")
	}
	if encryptedName == "" || encryptedName != filepath.Base(encryptedName) {
		return "", appErrors.Clone(appErrors.ErrInvalidArgument, fmt.Sprintf("invalid document name %q", encryptedName))
	}
	return filepath.Join(v.baseDir, fmt.Sprintf("claim-%d", claimID), encryptedName), nil
}
