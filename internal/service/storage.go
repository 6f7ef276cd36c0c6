package service

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrInvalidStoragePath = errors.New("path escapes the storage directory")

// ResolveStoragePath joins rel onto root and rejects anything that would land
// outside root, including absolute paths, ".." segments and URLs.
func ResolveStoragePath(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" || strings.Contains(rel, "://") || strings.ContainsRune(rel, 0) {
		return "", ErrInvalidStoragePath
	}
	rel = filepath.FromSlash(rel)
	if filepath.IsAbs(rel) {
		return "", ErrInvalidStoragePath
	}

	cleanRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(cleanRoot, rel)
	inside, err := filepath.Rel(cleanRoot, full)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", ErrInvalidStoragePath
	}
	return full, nil
}
