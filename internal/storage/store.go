// Package storage keeps uploaded proof files and hands back opaque references
// of the form proofs/<institution>/<uuid>-<filename>.
package storage

import (
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const refPrefix = "proofs/"

// MaxFilenameLength bounds the sanitized filename kept in a reference.
const MaxFilenameLength = 100

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename strips directories and replaces anything outside
// [A-Za-z0-9._-] so the name is safe as a path segment.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > MaxFilenameLength {
		name = name[len(name)-MaxFilenameLength:]
	}
	if name == "" {
		return "proof"
	}
	return name
}

// NewRef builds a fresh reference for an upload.
func NewRef(institutionID, filename string) string {
	return refPrefix + SanitizeFilename(institutionID) + "/" + uuid.NewString() + "-" + SanitizeFilename(filename)
}

// sanitizeRef validates a reference and returns its path relative to the store root.
func sanitizeRef(ref string) (string, error) {
	if !strings.HasPrefix(ref, refPrefix) {
		return "", errors.New("storage: invalid reference")
	}
	rel := strings.TrimPrefix(ref, refPrefix)
	cleaned := path.Clean(rel)
	if cleaned != rel || cleaned == "." || strings.HasPrefix(cleaned, "../") || strings.Count(cleaned, "/") != 1 {
		return "", errors.New("storage: invalid reference")
	}
	return cleaned, nil
}
