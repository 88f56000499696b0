// Package files provides workspace-confined file operations.
//
// Modules:
//   - basic: read, write, append, delete, exists, stat, move, rename, import
//   - formats: structured formats (JSON, YAML, TOML)
//   - archives: gzip and zstd compression
//
// Every operation runs its paths through the sandbox guard before touching
// the filesystem; paired operations (move, rename) validate both endpoints
// and imports fall back to Sanitize so external names land inside the
// workspace under a safe name.
package files
