// Package id provides centralized ID generation for the backend.
//
// IDs are UUIDv4 strings carrying a type-specific prefix (mem_*, task_*,
// refl_*, req_*) so a bare ID in a log line identifies its owner.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Prefixes for the ID kinds used across the backend.
const (
	MemoryPrefix     = "mem"
	TaskPrefix       = "task"
	ReflectionPrefix = "refl"
	RequestPrefix    = "req"
)

// New generates a prefixed unique ID.
func New(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// NewMemoryID generates an ID for a memory entry.
func NewMemoryID() string { return New(MemoryPrefix) }

// NewTaskID generates an ID for a task record.
func NewTaskID() string { return New(TaskPrefix) }

// NewReflectionID generates an ID for a reflection note.
func NewReflectionID() string { return New(ReflectionPrefix) }

// NewRequestID generates an ID for an API request.
func NewRequestID() string { return New(RequestPrefix) }

// Kind extracts the prefix from a prefixed ID, or "" if unprefixed.
func Kind(id string) string {
	if i := strings.IndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return ""
}
