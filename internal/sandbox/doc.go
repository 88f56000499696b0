// Package sandbox confines file operations to a single root directory.
//
// Every file-touching service in the backend resolves its target through a
// Guard before acting. The Guard answers two questions:
//
//   - Validate: may this operation touch this path? Returns a Decision value
//     (never a panic) with a machine-readable code and a human-readable
//     reason on rejection.
//   - Sanitize: give me a path inside the sandbox no matter what. Paths that
//     already resolve inside the root pass through; anything else is
//     re-rooted by its final filename.
//
// Containment is computed on canonical absolute paths, component by
// component. String prefix comparison is never used, so "/app/sandboxes"
// does not pass for root "/app/sandbox", and ".." traversal is neutralized
// by resolution rather than pattern matching.
//
// Symlinks are resolved before the containment check. This is a deliberate
// security decision: a symlink inside the sandbox pointing outside must not
// grant access to its target.
//
// The Guard holds no mutable state after construction, so concurrent calls
// from request handlers need no locking.
package sandbox
