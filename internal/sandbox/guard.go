package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Op is a recognized file operation kind. The set is closed; anything else
// is rejected with CodeUnsupportedOperation.
type Op string

const (
	OpRead   Op = "read"
	OpWrite  Op = "write"
	OpDelete Op = "delete"
	OpMove   Op = "move"
	OpRename Op = "rename"
)

// Valid reports whether op is one of the five recognized operations.
func (o Op) Valid() bool {
	switch o {
	case OpRead, OpWrite, OpDelete, OpMove, OpRename:
		return true
	}
	return false
}

// Paired reports whether op carries a source and destination.
func (o Op) Paired() bool {
	return o == OpMove || o == OpRename
}

// Code classifies a rejection.
type Code string

const (
	CodeUnsupportedOperation   Code = "unsupported_operation"
	CodeCrossBoundaryViolation Code = "cross_boundary_violation"
	CodePathResolutionError    Code = "path_resolution_error"
)

// Decision is the outcome of a validation. Rejections are values, not
// errors: the caller decides whether to abort or degrade.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Code    Code   `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func accepted() Decision {
	return Decision{Allowed: true}
}

func rejected(code Code, reason string) Decision {
	return Decision{Allowed: false, Code: code, Reason: reason}
}

// fallbackName is used by Sanitize when the input has no usable filename.
const fallbackName = "untitled"

// Guard validates paths against a fixed sandbox root.
type Guard struct {
	root string
}

// New canonicalizes root, creates the directory if missing, and returns a
// Guard bound to it. Creation is idempotent: a concurrent first call racing
// on MkdirAll is fine. This is the only fatal failure mode in the package;
// callers should abort startup if New fails.
func New(root string) (*Guard, error) {
	if root == "" {
		return nil, errors.New("sandbox: root directory not configured")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolve root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("sandbox: create root %q: %w", abs, err)
	}
	// Canonicalize after creation so a symlinked root (e.g. /tmp on macOS)
	// compares equal to the resolved form of paths under it.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("sandbox: canonicalize root %q: %w", abs, err)
	}
	return &Guard{root: resolved}, nil
}

// Root returns the canonical absolute sandbox root.
func (g *Guard) Root() string {
	return g.root
}

// Validate checks a single path against the sandbox boundary for the given
// operation. The path itself is not transformed; on acceptance the caller
// proceeds with the path it already has.
func (g *Guard) Validate(path string, op Op) Decision {
	if !op.Valid() {
		return rejected(CodeUnsupportedOperation, fmt.Sprintf("unsupported operation %q", op))
	}
	resolved, err := g.resolve(path)
	if err != nil {
		return rejected(CodePathResolutionError, err.Error())
	}
	if !g.contains(resolved) {
		return rejected(CodeCrossBoundaryViolation,
			fmt.Sprintf("path %q resolves outside the sandbox root", path))
	}
	return accepted()
}

// ValidatePair checks both sides of a move or rename. Both the source and
// the destination must resolve inside the sandbox; the rejection names the
// side that failed. Operations that do not carry a pair are rejected.
func (g *Guard) ValidatePair(source, destination string, op Op) Decision {
	if !op.Valid() {
		return rejected(CodeUnsupportedOperation, fmt.Sprintf("unsupported operation %q", op))
	}
	if !op.Paired() {
		return rejected(CodeUnsupportedOperation,
			fmt.Sprintf("operation %q does not take a source and destination", op))
	}
	for _, side := range []struct {
		label string
		path  string
	}{
		{"source", source},
		{"destination", destination},
	} {
		resolved, err := g.resolve(side.path)
		if err != nil {
			return rejected(CodePathResolutionError,
				fmt.Sprintf("%s: %v", side.label, err))
		}
		if !g.contains(resolved) {
			return rejected(CodeCrossBoundaryViolation,
				fmt.Sprintf("%s path %q resolves outside the sandbox root", side.label, side.path))
		}
	}
	return accepted()
}

// Sanitize coerces any input into a path inside the sandbox. Paths that
// already resolve inside the root are returned in canonical form; anything
// else keeps only its final filename, re-rooted under the sandbox. NUL
// bytes are stripped from the kept filename so the result always passes
// Validate. Sanitize never fails and is idempotent.
func (g *Guard) Sanitize(path string) string {
	if resolved, err := g.resolve(path); err == nil && g.contains(resolved) {
		return resolved
	}
	base := filepath.Base(filepath.Clean(path))
	base = strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, base)
	if base == "." || base == ".." || base == string(filepath.Separator) || base == "" {
		base = fallbackName
	}
	return filepath.Join(g.root, base)
}

// resolve produces the canonical absolute form of path. Components are
// applied left to right against an already-canonical prefix, so a ".."
// steps against the directory the kernel would actually walk, never
// against an unresolved symlink. Lexical cleaning before resolution would
// fold "link/../x" to "x" while the kernel follows the link first.
func (g *Guard) resolve(path string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", errors.New("path contains NUL byte")
	}
	abs := path
	if !filepath.IsAbs(abs) {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		abs = wd + string(filepath.Separator) + abs
	}
	return canonicalize(abs, 0)
}

// maxLinkHops bounds symlink chains during canonicalization, mirroring the
// kernel's ELOOP limit.
const maxLinkHops = 40

// canonicalize walks abs one component at a time. Each existing component
// is inspected with Lstat; symlinks are followed through Readlink even when
// their target does not exist yet, and the remaining components restart
// against the target. Components that do not exist are kept lexically.
func canonicalize(abs string, hops int) (string, error) {
	if hops > maxLinkHops {
		return "", errors.New("too many levels of symbolic links")
	}
	sep := string(filepath.Separator)
	resolved := sep
	comps := strings.Split(abs, sep)
	for i, comp := range comps {
		switch comp {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}
		next := filepath.Join(resolved, comp)
		info, err := os.Lstat(next)
		if errors.Is(err, fs.ErrNotExist) {
			resolved = next
			continue
		}
		if err != nil {
			return "", err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = resolved + sep + target
		}
		return canonicalize(target+sep+strings.Join(comps[i+1:], sep), hops+1)
	}
	return resolved, nil
}

// contains reports whether resolved is the root or a descendant of it,
// compared component-wise.
func (g *Guard) contains(resolved string) bool {
	if resolved == g.root {
		return true
	}
	return strings.HasPrefix(resolved, g.root+string(filepath.Separator))
}
