package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/lumenlabs/companion/internal/sandbox"
	"github.com/lumenlabs/companion/internal/types"
)

// FormatsOps handles structured format operations (JSON, YAML, TOML)
type FormatsOps struct {
	*Ops
}

// GetTools returns structured format tool definitions
func (f *FormatsOps) GetTools() []types.Tool {
	tools := make([]types.Tool, 0, 6)
	for _, format := range []string{"json", "yaml", "toml"} {
		tools = append(tools,
			types.Tool{
				ID:          "files.read_" + format,
				Name:        "Read " + format,
				Description: "Read and parse a " + format + " file",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File path", Required: true},
				},
				Returns: "object",
			},
			types.Tool{
				ID:          "files.write_" + format,
				Name:        "Write " + format,
				Description: "Serialize data to a " + format + " file",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File path", Required: true},
					{Name: "data", Type: "object", Description: "Data to serialize", Required: true},
				},
				Returns: "boolean",
			},
		)
	}
	return tools
}

type codec struct {
	marshal   func(interface{}) ([]byte, error)
	unmarshal func([]byte, interface{}) error
}

var codecs = map[string]codec{
	"json": {
		marshal:   func(v interface{}) ([]byte, error) { return sonic.MarshalIndent(v, "", "  ") },
		unmarshal: sonic.Unmarshal,
	},
	"yaml": {
		marshal:   yaml.Marshal,
		unmarshal: yaml.Unmarshal,
	},
	"toml": {
		marshal:   toml.Marshal,
		unmarshal: toml.Unmarshal,
	},
}

// ReadFormat reads and decodes a structured file
func (f *FormatsOps) ReadFormat(ctx context.Context, format string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	c, ok := codecs[format]
	if !ok {
		return Failure(fmt.Sprintf("unsupported format: %s", format))
	}
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}

	resolved, reject := f.Gate(path, sandbox.OpRead)
	if reject != nil {
		return reject, nil
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return Failure(fmt.Sprintf("failed to read file: %v", err))
	}

	var data map[string]interface{}
	if err := c.unmarshal(raw, &data); err != nil {
		return Failure(fmt.Sprintf("failed to parse %s: %v", format, err))
	}
	return Success(map[string]interface{}{"data": data, "path": resolved})
}

// WriteFormat encodes and writes a structured file
func (f *FormatsOps) WriteFormat(ctx context.Context, format string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	c, ok := codecs[format]
	if !ok {
		return Failure(fmt.Sprintf("unsupported format: %s", format))
	}
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	data, ok := params["data"]
	if !ok {
		return Failure("data parameter required")
	}

	resolved, reject := f.Gate(path, sandbox.OpWrite)
	if reject != nil {
		return reject, nil
	}

	encoded, err := c.marshal(data)
	if err != nil {
		return Failure(fmt.Sprintf("failed to encode %s: %v", format, err))
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return Failure(fmt.Sprintf("failed to create directory: %v", err))
	}
	if err := os.WriteFile(resolved, encoded, 0o644); err != nil {
		return Failure(fmt.Sprintf("failed to write file: %v", err))
	}
	return Success(map[string]interface{}{"path": resolved, "size": len(encoded)})
}
