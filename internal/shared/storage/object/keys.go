package object

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	uploadsRoot     = "uploads"
	reportsRoot     = "reports"
	principalKeyLen = 24
	maxFileNameLen  = 120
)

var (
	// ErrInvalidFileName is returned for empty names and traversal attempts.
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrInvalidKey is returned for keys that escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// CleanFileName flattens path separators and rejects traversal patterns.
func CleanFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(s)
	if s == "" {
		return "", ErrInvalidFileName
	}
	if len(s) > maxFileNameLen {
		s = s[len(s)-maxFileNameLen:]
	}
	return s, nil
}

// PrincipalKey maps a principal ("user:..." or "guest:...") to a stable
// path segment that does not leak the identifier.
func PrincipalKey(principal string) string {
	sum := sha256.Sum256([]byte(principal))
	return hex.EncodeToString(sum[:])[:principalKeyLen]
}

// UploadKey returns uploads/<principal>/<yyyymmdd>/<id>_<file>.
func UploadKey(principal, fileName string, now time.Time) (string, error) {
	clean, err := CleanFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(
		uploadsRoot,
		PrincipalKey(principal),
		now.UTC().Format("20060102"),
		uuid.NewString()+"_"+clean,
	), nil
}

// ReportKey is where the markdown report for an analysis lives.
func ReportKey(analysisID string) string {
	return path.Join(reportsRoot, analysisID+".md")
}

// CleanKey normalizes key and rejects absolute or escaping paths.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.Wrapf(ErrInvalidKey, "key %q", key)
	}
	return clean, nil
}

// ContentTypeOr returns ct, or DefaultContentType when ct is blank.
func ContentTypeOr(ct string) string {
	if strings.TrimSpace(ct) == "" {
		return DefaultContentType
	}
	return ct
}
