// Package util holds small helpers shared by the storage layers.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrBadFileName is returned for empty names or traversal attempts.
var ErrBadFileName = errors.New("invalid file name")

// SanitizeFileName strips path separators and control characters so the
// name is safe to join into a storage path. Traversal sequences are
// rejected outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrBadFileName
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", ErrBadFileName
	}
	return s, nil
}

// HashUserKey derives a fixed-length, filesystem-safe directory name from
// a user ID. User IDs come from an external gateway and may contain
// characters unsuitable for paths.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:16])
}
