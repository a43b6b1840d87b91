package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourcePaths locates input inside a source tree. root defaults to the
// directory containing input. It returns the absolute root and the
// slash-separated path of input relative to it.
func SourcePaths(input, root string) (absRoot, rel string, err error) {
	// Convert to absolute paths (resolves ../../ and cleans the path)
	absInput, err := filepath.Abs(input)
	if err != nil {
		return "", "", err
	}
	if root == "" {
		root = filepath.Dir(absInput)
	}
	absRoot, err = filepath.Abs(root)
	if err != nil {
		return "", "", err
	}

	r, err := filepath.Rel(absRoot, absInput)
	if err != nil {
		return "", "", err
	}
	r = filepath.ToSlash(r)
	if r == ".." || strings.HasPrefix(r, "../") {
		return "", "", fmt.Errorf("%s is outside %s", input, absRoot)
	}
	return absRoot, r, nil
}
