// Package path implements the immutable, hierarchical path names used to
// address nodes in the naming server's directory tree.
//
// A path is an ordered sequence of non-empty components separated by "/".
// Its canonical string form always starts with "/". The root path, whose
// canonical form is exactly "/", is the distinguished value that always
// exists and can never be created or deleted.
package path

import (
	"strings"

	"nsfs.io/errs"
)

// forbidden holds the characters that may never appear in a single
// component of a path.
const forbidden = ":"

// Path is the canonical, immutable, hashable representation of a
// hierarchical name. The zero value is equivalent to Root.
type Path struct {
	// clean is the canonical string form: "/" for the root, otherwise
	// "/" followed by components joined with "/", with no trailing
	// slash and no empty components.
	clean string
}

// Root is the distinguished root path. It always exists and is always a
// directory.
var Root = Path{clean: "/"}

// Parse parses s into a Path. s must start with "/" and must not contain
// the forbidden character ":". Empty components produced by repeated or
// trailing slashes are dropped, so "/a//b/" parses the same as "/a/b".
func Parse(s string) (Path, error) {
	if len(s) == 0 || s[0] != '/' {
		return Path{}, newSyntaxError(s, "path must start with \"/\"")
	}
	if strings.ContainsAny(s, forbidden) {
		return Path{}, newSyntaxError(s, "path contains a forbidden character")
	}
	parts := splitNonEmpty(s)
	return Path{clean: join(parts)}, nil
}

// New builds a Path by appending a single component to parent. The
// component must be non-empty and must contain neither "/" nor ":".
func New(parent Path, component string) (Path, error) {
	if component == "" {
		return Path{}, newSyntaxError(component, "component must not be empty")
	}
	if strings.ContainsAny(component, "/"+forbidden) {
		return Path{}, newSyntaxError(component, "component contains a forbidden character")
	}
	parts := append(parent.Elems(), component)
	return Path{clean: join(parts)}, nil
}

// MustParse is Parse but panics on error. Intended for tests and literals.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical string form of p.
func (p Path) String() string {
	if p.clean == "" {
		return "/"
	}
	return p.clean
}

// IsRoot reports whether p is the distinguished root path.
func (p Path) IsRoot() bool {
	return p.clean == "" || p.clean == "/"
}

// Parent returns the path of p's parent directory. It fails if p is root.
func (p Path) Parent() (Path, error) {
	if p.IsRoot() {
		return Path{}, newProgrammerError("Parent", "path is root")
	}
	parts := splitNonEmpty(p.clean)
	return Path{clean: join(parts[:len(parts)-1])}, nil
}

// Last returns the final component of p. It fails if p is root.
func (p Path) Last() (string, error) {
	if p.IsRoot() {
		return "", newProgrammerError("Last", "path is root")
	}
	parts := splitNonEmpty(p.clean)
	return parts[len(parts)-1], nil
}

// Elems returns the ordered list of components of p. The root has zero
// elements. The returned slice is a fresh copy; mutating it does not
// affect p.
func (p Path) Elems() []string {
	return splitNonEmpty(p.clean)
}

// NElem returns the number of components in p.
func (p Path) NElem() int {
	return len(p.Elems())
}

// IsSubpath reports whether other is a prefix of p in the directory-tree
// sense: p == other, or p lies somewhere below other. Every path is its
// own subpath, and the root is a subpath-prefix of every path.
func (p Path) IsSubpath(other Path) bool {
	if other.IsRoot() {
		return true
	}
	if p.clean == other.clean {
		return true
	}
	return strings.HasPrefix(p.clean, other.clean+"/")
}

// Equal reports whether p and q name the same path.
func (p Path) Equal(q Path) bool {
	return p.String() == q.String()
}

// GobEncode implements gob.GobEncoder so Path round-trips exactly across
// the wire codec despite having no
// exported fields of its own.
func (p Path) GobEncode() ([]byte, error) {
	return []byte(p.String()), nil
}

// GobDecode implements gob.GobDecoder.
func (p *Path) GobDecode(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func splitNonEmpty(s string) []string {
	raw := strings.Split(s, "/")
	parts := make([]string, 0, len(raw))
	for _, r := range raw {
		if r != "" {
			parts = append(parts, r)
		}
	}
	return parts
}

func join(parts []string) string {
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

func newSyntaxError(s, msg string) error {
	return errs.E(errs.Op("path.Parse"), errs.Invalid, s, errs.Str(msg))
}

func newProgrammerError(op, msg string) error {
	return errs.E(errs.Op("path."+op), errs.Invalid, errs.Str(msg))
}
