package files

import (
	"path/filepath"
	"time"

	"github.com/lumenlabs/companion/internal/monitoring"
	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/types"
)

// FileInfo represents file metadata
type FileInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	IsDir     bool      `json:"is_dir"`
	Mode      string    `json:"mode"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
}

// Ops provides shared helpers for file operation modules
type Ops struct {
	Guard   *sandbox.Guard
	Metrics *monitoring.Metrics
}

// Resolve anchors relative paths at the sandbox root. Concatenation, not
// filepath.Join: Join folds ".." lexically, which would erase a traversal
// through a symlink before the boundary check sees it.
func (o *Ops) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return o.Guard.Root() + string(filepath.Separator) + path
}

// Gate validates a path for an operation, returning a failure result
// when the boundary check rejects it
func (o *Ops) Gate(path string, op sandbox.Op) (string, *types.Result) {
	resolved := o.Resolve(path)
	decision := o.Guard.Validate(resolved, op)
	if !decision.Allowed {
		if o.Metrics != nil {
			o.Metrics.RecordSandboxRejection(string(decision.Code))
		}
		return "", failureResult(decision.Reason)
	}
	return resolved, nil
}

// GatePair validates source and destination for paired operations
func (o *Ops) GatePair(source, destination string, op sandbox.Op) (string, string, *types.Result) {
	src := o.Resolve(source)
	dst := o.Resolve(destination)
	decision := o.Guard.ValidatePair(src, dst, op)
	if !decision.Allowed {
		if o.Metrics != nil {
			o.Metrics.RecordSandboxRejection(string(decision.Code))
		}
		return "", "", failureResult(decision.Reason)
	}
	return src, dst, nil
}

// Success helper
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure helper
func Failure(message string) (*types.Result, error) {
	return failureResult(message), nil
}

func failureResult(message string) *types.Result {
	msg := message
	return &types.Result{Success: false, Error: &msg}
}

// getString extracts a required string parameter
func getString(params map[string]interface{}, key string) (string, bool) {
	val, ok := params[key].(string)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}
