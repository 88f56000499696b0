package files

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumenlabs/companion/internal/monitoring"
	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/types"
)

// Provider exposes sandboxed file operations as a service
type Provider struct {
	basic    *BasicOps
	formats  *FormatsOps
	archives *ArchivesOps
}

// NewProvider creates a files provider bound to the sandbox guard
func NewProvider(guard *sandbox.Guard, metrics *monitoring.Metrics) *Provider {
	ops := &Ops{Guard: guard, Metrics: metrics}
	return &Provider{
		basic:    &BasicOps{Ops: ops},
		formats:  &FormatsOps{Ops: ops},
		archives: &ArchivesOps{Ops: ops},
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	tools := p.basic.GetTools()
	tools = append(tools, p.formats.GetTools()...)
	tools = append(tools, p.archives.GetTools()...)

	return types.Service{
		ID:          "files",
		Name:        "Files Service",
		Description: "File operations confined to the companion workspace",
		Category:    types.CategoryFiles,
		Capabilities: []string{
			"read", "write", "append", "delete", "stat",
			"move", "rename", "import", "formats", "archives",
		},
		Tools: tools,
	}
}

// Execute dispatches a tool call
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "files.read":
		return p.basic.Read(ctx, params, appCtx)
	case "files.write":
		return p.basic.Write(ctx, params, appCtx)
	case "files.append":
		return p.basic.Append(ctx, params, appCtx)
	case "files.delete":
		return p.basic.Delete(ctx, params, appCtx)
	case "files.exists":
		return p.basic.Exists(ctx, params, appCtx)
	case "files.stat":
		return p.basic.Stat(ctx, params, appCtx)
	case "files.move":
		return p.basic.Move(ctx, params, appCtx)
	case "files.rename":
		return p.basic.Rename(ctx, params, appCtx)
	case "files.import":
		return p.basic.Import(ctx, params, appCtx)
	case "files.compress":
		return p.archives.Compress(ctx, params, appCtx)
	case "files.decompress":
		return p.archives.Decompress(ctx, params, appCtx)
	}

	if format, op, ok := formatTool(toolID); ok {
		if op == "read" {
			return p.formats.ReadFormat(ctx, format, params, appCtx)
		}
		return p.formats.WriteFormat(ctx, format, params, appCtx)
	}

	return Failure(fmt.Sprintf("unknown tool: %s", toolID))
}

func formatTool(toolID string) (format, op string, ok bool) {
	name := strings.TrimPrefix(toolID, "files.")
	switch {
	case strings.HasPrefix(name, "read_"):
		return strings.TrimPrefix(name, "read_"), "read", true
	case strings.HasPrefix(name, "write_"):
		return strings.TrimPrefix(name, "write_"), "write", true
	}
	return "", "", false
}
