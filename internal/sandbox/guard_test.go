package sandbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) *Guard {
	t.Helper()
	g, err := New(filepath.Join(t.TempDir(), "sandbox"))
	require.NoError(t, err)
	return g
}

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b", "sandbox")
	g, err := New(root)
	require.NoError(t, err)

	info, err := os.Stat(g.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewIdempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "sandbox")
	first, err := New(root)
	require.NoError(t, err)

	second, err := New(root)
	require.NoError(t, err)
	assert.Equal(t, first.Root(), second.Root())
}

func TestNewEmptyRoot(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestValidateInsideAcceptsAllOperations(t *testing.T) {
	g := newGuard(t)
	inside := filepath.Join(g.Root(), "notes.txt")

	for _, op := range []Op{OpRead, OpWrite, OpDelete, OpMove, OpRename} {
		d := g.Validate(inside, op)
		assert.True(t, d.Allowed, "op %s should accept inside path", op)
		assert.Empty(t, d.Code)
	}
}

func TestValidateRootItself(t *testing.T) {
	g := newGuard(t)
	d := g.Validate(g.Root(), OpRead)
	assert.True(t, d.Allowed)
}

func TestValidateOutsideRejected(t *testing.T) {
	g := newGuard(t)

	outside := []string{
		"/etc/passwd",
		filepath.Join(g.Root(), "..", "secrets.txt"),
		filepath.Join(g.Root(), "a", "..", "..", "escape.txt"),
		filepath.Dir(g.Root()),
	}
	for _, p := range outside {
		for _, op := range []Op{OpRead, OpWrite, OpDelete, OpMove, OpRename} {
			d := g.Validate(p, op)
			assert.False(t, d.Allowed, "path %s op %s should be rejected", p, op)
			assert.Equal(t, CodeCrossBoundaryViolation, d.Code)
			assert.NotEmpty(t, d.Reason)
		}
	}
}

func TestValidateSiblingPrefixRejected(t *testing.T) {
	// "/x/sandboxes" must not pass for root "/x/sandbox".
	g := newGuard(t)
	sibling := g.Root() + "es"
	d := g.Validate(filepath.Join(sibling, "f.txt"), OpWrite)
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeCrossBoundaryViolation, d.Code)
}

func TestValidateUnsupportedOperation(t *testing.T) {
	g := newGuard(t)
	d := g.Validate(filepath.Join(g.Root(), "x.txt"), Op("execute"))
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeUnsupportedOperation, d.Code)
}

func TestValidateNulByte(t *testing.T) {
	g := newGuard(t)
	d := g.Validate(g.Root()+"/a\x00b", OpWrite)
	assert.False(t, d.Allowed)
	assert.Equal(t, CodePathResolutionError, d.Code)
}

func TestValidatePairAllCombinations(t *testing.T) {
	g := newGuard(t)
	in1 := filepath.Join(g.Root(), "a.txt")
	in2 := filepath.Join(g.Root(), "b.txt")
	out := "/etc/b.txt"

	cases := []struct {
		name    string
		src     string
		dst     string
		allowed bool
	}{
		{"both inside", in1, in2, true},
		{"source outside", out, in2, false},
		{"destination outside", in1, out, false},
		{"both outside", out, "/etc/c.txt", false},
	}
	for _, op := range []Op{OpMove, OpRename} {
		for _, tc := range cases {
			d := g.ValidatePair(tc.src, tc.dst, op)
			assert.Equal(t, tc.allowed, d.Allowed, "%s %s", op, tc.name)
			if !tc.allowed {
				assert.Equal(t, CodeCrossBoundaryViolation, d.Code)
			}
		}
	}
}

func TestValidatePairNamesFailingSide(t *testing.T) {
	g := newGuard(t)
	in := filepath.Join(g.Root(), "a.txt")

	d := g.ValidatePair("/etc/passwd", in, OpMove)
	assert.Contains(t, d.Reason, "source")

	d = g.ValidatePair(in, "/etc/passwd", OpMove)
	assert.Contains(t, d.Reason, "destination")
}

func TestValidatePairRejectsUnpairedOperation(t *testing.T) {
	g := newGuard(t)
	in := filepath.Join(g.Root(), "a.txt")
	d := g.ValidatePair(in, in, OpWrite)
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeUnsupportedOperation, d.Code)
}

func TestValidateSymlinkEscapeRejected(t *testing.T) {
	g := newGuard(t)

	outsideDir := t.TempDir()
	link := filepath.Join(g.Root(), "link")
	require.NoError(t, os.Symlink(outsideDir, link))

	d := g.Validate(filepath.Join(link, "f.txt"), OpWrite)
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeCrossBoundaryViolation, d.Code)
}

func TestValidateSymlinkDotDotEscapeRejected(t *testing.T) {
	// "link/../escape.txt" must be rejected when link points outside: the
	// kernel follows the link before applying "..", so the write would land
	// next to the link target, not next to the link.
	g := newGuard(t)

	outsideDir := t.TempDir()
	link := filepath.Join(g.Root(), "link")
	require.NoError(t, os.Symlink(outsideDir, link))

	d := g.Validate(filepath.Join(link, "..", "escape.txt"), OpWrite)
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeCrossBoundaryViolation, d.Code)

	d = g.Validate(link+"/../escape.txt", OpWrite)
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeCrossBoundaryViolation, d.Code)
}

func TestValidateDanglingSymlinkEscapeRejected(t *testing.T) {
	// A link to a target that does not exist yet still redirects a write
	// through to that target when the file is created.
	g := newGuard(t)

	target := filepath.Join(t.TempDir(), "not-yet-created.txt")
	link := filepath.Join(g.Root(), "dangling")
	require.NoError(t, os.Symlink(target, link))

	d := g.Validate(link, OpWrite)
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeCrossBoundaryViolation, d.Code)
}

func TestValidateSymlinkInsideAccepted(t *testing.T) {
	g := newGuard(t)

	sub := filepath.Join(g.Root(), "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	link := filepath.Join(g.Root(), "alias")
	require.NoError(t, os.Symlink(sub, link))

	d := g.Validate(filepath.Join(link, "f.txt"), OpWrite)
	assert.True(t, d.Allowed)
}

func TestSanitizeAlwaysInside(t *testing.T) {
	g := newGuard(t)

	inputs := []string{
		"",
		".",
		"..",
		"/",
		"/etc/passwd",
		"../../etc/shadow",
		filepath.Join(g.Root(), "ok.txt"),
		filepath.Join(g.Root(), "..", "..", "escape.txt"),
		"relative/path.txt",
		strings.Repeat("../", 40) + "deep.txt",
	}
	for _, p := range inputs {
		got := g.Sanitize(p)
		d := g.Validate(got, OpWrite)
		assert.True(t, d.Allowed, "Sanitize(%q) = %q should be inside root", p, got)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	g := newGuard(t)
	inputs := []string{"", "/etc/passwd", "../x.txt", filepath.Join(g.Root(), "a.txt")}
	for _, p := range inputs {
		once := g.Sanitize(p)
		assert.Equal(t, once, g.Sanitize(once), "Sanitize should be idempotent for %q", p)
	}
}

func TestSanitizeKeepsInsidePaths(t *testing.T) {
	g := newGuard(t)
	in := filepath.Join(g.Root(), "sub", "notes.txt")
	assert.Equal(t, in, g.Sanitize(in))
}

func TestSanitizeStripsNulBytes(t *testing.T) {
	g := newGuard(t)

	got := g.Sanitize("a\x00b")
	assert.Equal(t, filepath.Join(g.Root(), "ab"), got)

	d := g.Validate(got, OpWrite)
	assert.True(t, d.Allowed)

	got = g.Sanitize("\x00")
	assert.Equal(t, filepath.Join(g.Root(), fallbackName), got)
}

func TestSanitizeRerootsExternal(t *testing.T) {
	g := newGuard(t)
	assert.Equal(t, filepath.Join(g.Root(), "passwd"), g.Sanitize("/etc/passwd"))
	assert.Equal(t, filepath.Join(g.Root(), fallbackName), g.Sanitize("/"))
}

func TestOpValid(t *testing.T) {
	assert.True(t, OpRead.Valid())
	assert.True(t, OpRename.Valid())
	assert.False(t, Op("execute").Valid())
	assert.False(t, Op("").Valid())
}
