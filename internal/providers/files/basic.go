package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/types"
)

// BasicOps handles basic file operations
type BasicOps struct {
	*Ops
}

// GetTools returns basic file operation tool definitions
func (b *BasicOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "files.read",
			Name:        "Read File",
			Description: "Read file contents",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "string",
		},
		{
			ID:          "files.write",
			Name:        "Write File",
			Description: "Write data to file (overwrites existing)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "string", Description: "Data to write", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "files.append",
			Name:        "Append to File",
			Description: "Append data to end of file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "data", Type: "string", Description: "Data to append", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "files.delete",
			Name:        "Delete File",
			Description: "Delete a file or empty directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "files.exists",
			Name:        "File Exists",
			Description: "Check whether a path exists",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "files.stat",
			Name:        "File Info",
			Description: "Get file metadata including detected MIME type",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "files.move",
			Name:        "Move File",
			Description: "Move a file to a new location",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "files.rename",
			Name:        "Rename File",
			Description: "Rename a file within its directory",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Current path", Required: true},
				{Name: "destination", Type: "string", Description: "New path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "files.import",
			Name:        "Import File",
			Description: "Import external content under a safe name inside the workspace",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Suggested path, re-rooted if outside", Required: true},
				{Name: "data", Type: "string", Description: "Content to import", Required: true},
			},
			Returns: "object",
		},
	}
}

// Read reads file contents
func (b *BasicOps) Read(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	resolved, reject := b.Gate(path, sandbox.OpRead)
	if reject != nil {
		return reject, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Failure(fmt.Sprintf("failed to read file: %v", err))
	}
	return Success(map[string]interface{}{"content": string(data), "path": resolved})
}

// Write writes data to a file, creating parent directories as needed
func (b *BasicOps) Write(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	data, ok := params["data"].(string)
	if !ok {
		return Failure("data parameter required")
	}

	resolved, reject := b.Gate(path, sandbox.OpWrite)
	if reject != nil {
		return reject, nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return Failure(fmt.Sprintf("failed to create directory: %v", err))
	}
	if err := os.WriteFile(resolved, []byte(data), 0o644); err != nil {
		return Failure(fmt.Sprintf("failed to write file: %v", err))
	}
	return Success(map[string]interface{}{"path": resolved, "size": len(data)})
}

// Append appends data to a file
func (b *BasicOps) Append(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	data, ok := params["data"].(string)
	if !ok {
		return Failure("data parameter required")
	}

	resolved, reject := b.Gate(path, sandbox.OpWrite)
	if reject != nil {
		return reject, nil
	}

	f, err := os.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Failure(fmt.Sprintf("failed to open file: %v", err))
	}
	defer f.Close()

	if _, err := f.WriteString(data); err != nil {
		return Failure(fmt.Sprintf("failed to append: %v", err))
	}
	return Success(map[string]interface{}{"path": resolved})
}

// Delete removes a file or empty directory
func (b *BasicOps) Delete(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	resolved, reject := b.Gate(path, sandbox.OpDelete)
	if reject != nil {
		return reject, nil
	}

	if err := os.Remove(resolved); err != nil {
		return Failure(fmt.Sprintf("failed to delete: %v", err))
	}
	return Success(map[string]interface{}{"path": resolved})
}

// Exists checks whether a path exists
func (b *BasicOps) Exists(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	resolved, reject := b.Gate(path, sandbox.OpRead)
	if reject != nil {
		return reject, nil
	}

	_, err := os.Stat(resolved)
	return Success(map[string]interface{}{"exists": err == nil, "path": resolved})
}

// Stat returns file metadata with MIME detection
func (b *BasicOps) Stat(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	resolved, reject := b.Gate(path, sandbox.OpRead)
	if reject != nil {
		return reject, nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Failure(fmt.Sprintf("failed to stat: %v", err))
	}

	fi := FileInfo{
		Name:     info.Name(),
		Path:     resolved,
		Size:     info.Size(),
		IsDir:    info.IsDir(),
		Mode:     info.Mode().String(),
		Modified: info.ModTime(),
	}
	if !info.IsDir() {
		fi.Extension = filepath.Ext(resolved)
		if mt, err := mimetype.DetectFile(resolved); err == nil {
			fi.MimeType = mt.String()
		}
	}

	return Success(map[string]interface{}{"info": fi})
}

// Move relocates a file, validating both endpoints
func (b *BasicOps) Move(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return b.relocate(params, sandbox.OpMove)
}

// Rename renames a file, validating both endpoints
func (b *BasicOps) Rename(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return b.relocate(params, sandbox.OpRename)
}

func (b *BasicOps) relocate(params map[string]interface{}, op sandbox.Op) (*types.Result, error) {
	source, ok := getString(params, "source")
	if !ok {
		return Failure("source parameter required")
	}
	destination, ok := getString(params, "destination")
	if !ok {
		return Failure("destination parameter required")
	}

	src, dst, reject := b.GatePair(source, destination, op)
	if reject != nil {
		return reject, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Failure(fmt.Sprintf("failed to create directory: %v", err))
	}
	if err := os.Rename(src, dst); err != nil {
		return Failure(fmt.Sprintf("failed to %s: %v", op, err))
	}
	return Success(map[string]interface{}{"source": src, "destination": dst})
}

// Import writes external content under a sanitized name. The suggested
// path is re-rooted inside the workspace when it points elsewhere.
func (b *BasicOps) Import(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	data, ok := params["data"].(string)
	if !ok {
		return Failure("data parameter required")
	}

	safe := b.Guard.Sanitize(path)
	if err := os.MkdirAll(filepath.Dir(safe), 0o755); err != nil {
		return Failure(fmt.Sprintf("failed to create directory: %v", err))
	}
	if err := os.WriteFile(safe, []byte(data), 0o644); err != nil {
		return Failure(fmt.Sprintf("failed to import: %v", err))
	}
	return Success(map[string]interface{}{"path": safe, "rerooted": safe != b.Resolve(path)})
}
