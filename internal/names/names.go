// Package names holds the rule shared by every store for user-chosen names:
// datasets, projects and models all become a single file or directory stem.
package names

import (
	"fmt"
	"strings"
)

// Validate rejects names that cannot be a plain file stem.
func Validate(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name is empty")
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("name %q starts with a dot", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q contains a path separator", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("name %q contains a NUL byte", name)
	}
	return nil
}
