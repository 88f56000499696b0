package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/types"
)

// ArchivesOps handles compressed export and import
type ArchivesOps struct {
	*Ops
}

// GetTools returns archive tool definitions
func (a *ArchivesOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "files.compress",
			Name:        "Compress File",
			Description: "Compress a file with gzip or zstd",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File to compress", Required: true},
				{Name: "codec", Type: "string", Description: "gzip or zstd (default gzip)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "files.decompress",
			Name:        "Decompress File",
			Description: "Decompress a .gz or .zst file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Compressed file", Required: true},
			},
			Returns: "object",
		},
	}
}

// Compress writes a compressed copy of the file next to it
func (a *ArchivesOps) Compress(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	codec, _ := params["codec"].(string)
	if codec == "" {
		codec = "gzip"
	}

	resolved, reject := a.Gate(path, sandbox.OpRead)
	if reject != nil {
		return reject, nil
	}

	var ext string
	switch codec {
	case "gzip":
		ext = ".gz"
	case "zstd":
		ext = ".zst"
	default:
		return Failure(fmt.Sprintf("unsupported codec: %s", codec))
	}

	target := resolved + ext
	if _, reject := a.Gate(target, sandbox.OpWrite); reject != nil {
		return reject, nil
	}

	src, err := os.Open(resolved)
	if err != nil {
		return Failure(fmt.Sprintf("failed to open file: %v", err))
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return Failure(fmt.Sprintf("failed to create archive: %v", err))
	}
	defer dst.Close()

	var w io.WriteCloser
	switch codec {
	case "gzip":
		w = gzip.NewWriter(dst)
	case "zstd":
		zw, err := zstd.NewWriter(dst)
		if err != nil {
			return Failure(fmt.Sprintf("failed to init zstd: %v", err))
		}
		w = zw
	}

	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return Failure(fmt.Sprintf("compression failed: %v", err))
	}
	if err := w.Close(); err != nil {
		return Failure(fmt.Sprintf("compression failed: %v", err))
	}

	info, err := os.Stat(target)
	if err != nil {
		return Failure(fmt.Sprintf("failed to stat archive: %v", err))
	}
	return Success(map[string]interface{}{
		"path":  target,
		"codec": codec,
		"size":  info.Size(),
	})
}

// Decompress restores a .gz or .zst file next to the archive
func (a *ArchivesOps) Decompress(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	resolved, reject := a.Gate(path, sandbox.OpRead)
	if reject != nil {
		return reject, nil
	}

	var target string
	src, err := os.Open(resolved)
	if err != nil {
		return Failure(fmt.Sprintf("failed to open archive: %v", err))
	}
	defer src.Close()

	var r io.Reader
	switch {
	case strings.HasSuffix(resolved, ".gz"):
		target = strings.TrimSuffix(resolved, ".gz")
		gr, err := gzip.NewReader(src)
		if err != nil {
			return Failure(fmt.Sprintf("invalid gzip archive: %v", err))
		}
		defer gr.Close()
		r = gr
	case strings.HasSuffix(resolved, ".zst"):
		target = strings.TrimSuffix(resolved, ".zst")
		zr, err := zstd.NewReader(src)
		if err != nil {
			return Failure(fmt.Sprintf("invalid zstd archive: %v", err))
		}
		defer zr.Close()
		r = zr
	default:
		return Failure("unrecognized archive extension, expected .gz or .zst")
	}

	if _, reject := a.Gate(target, sandbox.OpWrite); reject != nil {
		return reject, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Failure(fmt.Sprintf("failed to create directory: %v", err))
	}
	dst, err := os.Create(target)
	if err != nil {
		return Failure(fmt.Sprintf("failed to create file: %v", err))
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return Failure(fmt.Sprintf("decompression failed: %v", err))
	}

	info, err := os.Stat(target)
	if err != nil {
		return Failure(fmt.Sprintf("failed to stat file: %v", err))
	}
	return Success(map[string]interface{}{"path": target, "size": info.Size()})
}
