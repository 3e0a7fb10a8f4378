// Package fingerprint turns Python source functions into deterministic
// semantic fingerprints: seven canonical feature views, one content digest
// per view, and one aggregate digest per function.
package fingerprint

import (
	"fmt"
	"strings"
)

// Identity is the stable key for "the same function" across two versions
// of a file. It is a pure value over (file path, class chain, name) and
// never depends on line numbers or byte offsets, so moving a function
// within a file keeps its identity.
type Identity struct {
	File      string `json:"file"`
	Qualifier string `json:"qualifier,omitempty"`
	Name      string `json:"name"`
}

// NewIdentity builds an identity from a file path (normalized to forward
// slashes), an enclosing class chain, and a function name.
func NewIdentity(file string, classChain []string, name string) Identity {
	return Identity{
		File:      NormalizePath(file),
		Qualifier: strings.Join(classChain, "."),
		Name:      name,
	}
}

// Key renders the identity in its canonical string form:
// "path/to/file.py::my_function" or "path/to/file.py::MyClass.my_method".
func (id Identity) Key() string {
	if id.Qualifier != "" {
		return fmt.Sprintf("%s::%s.%s", id.File, id.Qualifier, id.Name)
	}
	return fmt.Sprintf("%s::%s", id.File, id.Name)
}

// Public reports whether the function name follows the public naming
// convention (no leading underscore).
func (id Identity) Public() bool {
	return !strings.HasPrefix(id.Name, "_")
}

// NormalizePath converts a path to its canonical forward-slash form.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
