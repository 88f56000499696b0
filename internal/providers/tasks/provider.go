// Package tasks tracks the companion's to-do items, persisted as JSON
// inside the workspace.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenlabs/companion/internal/types"
)

// Provider exposes task tracking as a service
type Provider struct {
	store *Store
}

// NewProvider creates a tasks provider over the given store
func NewProvider(store *Store) *Provider {
	return &Provider{store: store}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "tasks",
		Name:        "Tasks Service",
		Description: "Create and track to-do items",
		Category:    types.CategoryTasks,
		Capabilities: []string{
			"create", "get", "list", "update", "complete", "delete",
		},
		Tools: []types.Tool{
			{
				ID:          "tasks.create",
				Name:        "Create Task",
				Description: "Create a new open task",
				Parameters: []types.Parameter{
					{Name: "title", Type: "string", Description: "Task title", Required: true},
					{Name: "notes", Type: "string", Description: "Task notes", Required: false},
					{Name: "due_at", Type: "string", Description: "Due time, RFC 3339", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "tasks.get",
				Name:        "Get Task",
				Description: "Fetch a task by ID",
				Parameters: []types.Parameter{
					{Name: "id", Type: "string", Description: "Task ID", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "tasks.list",
				Name:        "List Tasks",
				Description: "List tasks, optionally by status",
				Parameters: []types.Parameter{
					{Name: "status", Type: "string", Description: "open, done or dropped", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "tasks.update",
				Name:        "Update Task",
				Description: "Update task title, notes or status",
				Parameters: []types.Parameter{
					{Name: "id", Type: "string", Description: "Task ID", Required: true},
					{Name: "title", Type: "string", Description: "New title", Required: false},
					{Name: "notes", Type: "string", Description: "New notes", Required: false},
					{Name: "status", Type: "string", Description: "New status", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "tasks.complete",
				Name:        "Complete Task",
				Description: "Mark a task done",
				Parameters: []types.Parameter{
					{Name: "id", Type: "string", Description: "Task ID", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "tasks.delete",
				Name:        "Delete Task",
				Description: "Remove a task",
				Parameters: []types.Parameter{
					{Name: "id", Type: "string", Description: "Task ID", Required: true},
				},
				Returns: "boolean",
			},
		},
	}
}

// Execute dispatches a tool call
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "tasks.create":
		return p.create(params)
	case "tasks.get":
		return p.get(params)
	case "tasks.list":
		return p.list(params)
	case "tasks.update":
		return p.update(params)
	case "tasks.complete":
		return p.complete(params)
	case "tasks.delete":
		return p.delete(params)
	}
	return failure(fmt.Sprintf("unknown tool: %s", toolID))
}

func (p *Provider) create(params map[string]interface{}) (*types.Result, error) {
	title, _ := params["title"].(string)
	notes, _ := params["notes"].(string)

	var dueAt *time.Time
	if raw, ok := params["due_at"].(string); ok && raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return failure(fmt.Sprintf("invalid due_at: %v", err))
		}
		dueAt = &parsed
	}

	task, err := p.store.Create(title, notes, dueAt)
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"task": task})
}

func (p *Provider) get(params map[string]interface{}) (*types.Result, error) {
	taskID, ok := params["id"].(string)
	if !ok || taskID == "" {
		return failure("id parameter required")
	}

	task, found := p.store.Get(taskID)
	if !found {
		return failure(fmt.Sprintf("task not found: %s", taskID))
	}
	return success(map[string]interface{}{"task": task})
}

func (p *Provider) list(params map[string]interface{}) (*types.Result, error) {
	status, _ := params["status"].(string)
	if status != "" && !validStatus(status) {
		return failure(fmt.Sprintf("invalid status: %s", status))
	}

	tasks := p.store.List(status)
	return success(map[string]interface{}{"tasks": tasks, "count": len(tasks)})
}

func (p *Provider) update(params map[string]interface{}) (*types.Result, error) {
	taskID, ok := params["id"].(string)
	if !ok || taskID == "" {
		return failure("id parameter required")
	}
	title, _ := params["title"].(string)
	notes, _ := params["notes"].(string)
	status, _ := params["status"].(string)

	task, err := p.store.Update(taskID, title, notes, status)
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"task": task})
}

func (p *Provider) complete(params map[string]interface{}) (*types.Result, error) {
	taskID, ok := params["id"].(string)
	if !ok || taskID == "" {
		return failure("id parameter required")
	}

	task, err := p.store.Complete(taskID)
	if err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"task": task})
}

func (p *Provider) delete(params map[string]interface{}) (*types.Result, error) {
	taskID, ok := params["id"].(string)
	if !ok || taskID == "" {
		return failure("id parameter required")
	}

	if err := p.store.Delete(taskID); err != nil {
		return failure(err.Error())
	}
	return success(map[string]interface{}{"deleted": taskID})
}

func success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

func failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
