// Package pathsafe validates the extracted-image filenames the writer
// layer produces against the --image-dir base, so a crafted filename can't
// write outside the directory the operator named. The base directory
// itself is taken as given and is not checked.
package pathsafe

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sqlerrors "github.com/forensiq/sqlrecover/core/errors"
)

// ErrPathTraversal indicates a candidate path would escape its base
// directory once cleaned and resolved.
var ErrPathTraversal = errors.New("path traversal detected")

const maxPathLength = 4096

// ResolveImagePath joins name (an image filename the writer is about to
// create, e.g. "image_a1b2c3d4e5f6.jpg") onto baseDir and verifies the
// result still lives inside baseDir. It returns the joined, absolute
// path ready for os.WriteFile / os.MkdirAll.
func ResolveImagePath(baseDir, name string) (string, error) {
	if name == "" {
		return "", &sqlerrors.ValidationError{Field: "name", Value: name, Message: "empty filename", Err: ErrPathTraversal}
	}
	if len(baseDir)+len(name) > maxPathLength {
		return "", &sqlerrors.ValidationError{Field: "name", Value: name, Message: "path too long", Err: ErrPathTraversal}
	}

	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || strings.Contains(clean, "..") {
		return "", &sqlerrors.ValidationError{Field: "name", Value: name, Message: "contains traversal or is absolute", Err: ErrPathTraversal}
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolving image directory: %w", err)
	}
	full := filepath.Join(absBase, clean)

	rel, err := filepath.Rel(absBase, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &sqlerrors.ValidationError{Field: "name", Value: name, Message: fmt.Sprintf("escapes %q", baseDir), Err: ErrPathTraversal}
	}

	return full, nil
}
