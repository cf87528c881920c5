package pullsync

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Policy holds the options that change decisions in a mirror run. It is not
// modified once a run starts.
type Policy struct {
	// ExcludedNames are exact file names that are never fetched.
	ExcludedNames []string
	// ExcludePatterns are glob patterns matched against a file's name and
	// its path relative to the remote root.
	ExcludePatterns []string
	// MoveAfterFetch removes the remote file once the local copy is known to
	// be up to date.
	MoveAfterFetch bool
	// CheckSize treats a size mismatch as stale in addition to a
	// modification time mismatch.
	CheckSize bool
}

func (p Policy) Validate() error {
	for _, pattern := range p.ExcludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// IsTempFile reports whether name is an office lock or temp file: "~$*" or
// "~*.tmp".
func IsTempFile(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return true
	}
	return strings.HasPrefix(name, "~") && strings.HasSuffix(name, ".tmp")
}

// Excludes reports whether a file is excluded by name or pattern. relPath is
// slash separated and relative to the remote root.
func (p Policy) Excludes(name, relPath string) bool {
	for _, excluded := range p.ExcludedNames {
		if name == excluded {
			return true
		}
	}

	for _, pattern := range p.ExcludePatterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}
