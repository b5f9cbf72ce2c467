package treeops

import (
	"strings"
)

const maxPathLength = 4096

// ValidatePath checks that p is a well-formed slash-separated relative
// repository path: non-empty, no leading slash, no ".." segments, and
// bounded length. The core assumes its inputs already passed this check.
func ValidatePath(p string) error {
	if p == "" {
		return validationErrorf("path must not be empty")
	}
	if len(p) > maxPathLength {
		return validationErrorf("path exceeds %d characters", maxPathLength)
	}
	if strings.HasPrefix(p, "/") {
		return validationErrorf("path %q must not start with a slash", p)
	}
	if strings.HasSuffix(p, "/") {
		return validationErrorf("path %q must not end with a slash", p)
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == "" {
			return validationErrorf("path %q contains an empty segment", p)
		}
		if segment == ".." {
			return validationErrorf("path %q contains a parent traversal", p)
		}
	}
	return nil
}

// ValidateDestination is ValidatePath relaxed for move destinations, where
// the empty string addresses the repository root.
func ValidateDestination(p string) error {
	if p == "" {
		return nil
	}
	return ValidatePath(p)
}

// ParentOf returns the parent directory of p, or "" for a top-level path.
func ParentOf(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// BaseOf returns the last path segment of p.
func BaseOf(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}

// JoinPath joins parent and name, treating an empty parent as the root.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// UnderPrefix reports whether p equals prefix or is nested beneath it.
func UnderPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
