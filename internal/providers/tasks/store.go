package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/lumenlabs/companion/internal/shared/id"
)

// Task statuses
const (
	StatusOpen    = "open"
	StatusDone    = "done"
	StatusDropped = "dropped"
)

// Task is a tracked to-do item
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DueAt     *time.Time `json:"due_at,omitempty"`
}

// Store persists tasks as a JSON file inside the workspace
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	path  string
}

// NewStore opens (or creates) a task store persisted at path
func NewStore(path string) (*Store, error) {
	s := &Store{
		tasks: make(map[string]*Task),
		path:  path,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Create adds a new open task
func (s *Store) Create(title, notes string, dueAt *time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("task title cannot be empty")
	}

	now := time.Now().UTC()
	task := &Task{
		ID:        id.NewTaskID(),
		Title:     title,
		Notes:     notes,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
		DueAt:     dueAt,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	if err := s.save(); err != nil {
		delete(s.tasks, task.ID)
		return nil, err
	}
	clone := *task
	return &clone, nil
}

// Get retrieves a task by ID
func (s *Store) Get(taskID string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, false
	}
	clone := *t
	return &clone, true
}

// List returns tasks, optionally filtered by status, newest first
func (s *Store) List(status string) []Task {
	s.mu.RLock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, *t)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Update changes task fields; empty values leave fields untouched
func (s *Store) Update(taskID, title, notes, status string) (*Task, error) {
	if status != "" && !validStatus(status) {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}

	if title != "" {
		t.Title = title
	}
	if notes != "" {
		t.Notes = notes
	}
	if status != "" {
		t.Status = status
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.save(); err != nil {
		return nil, err
	}
	clone := *t
	return &clone, nil
}

// Complete marks a task done
func (s *Store) Complete(taskID string) (*Task, error) {
	return s.Update(taskID, "", "", StatusDone)
}

// Delete removes a task
func (s *Store) Delete(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return fmt.Errorf("task not found: %s", taskID)
	}
	delete(s.tasks, taskID)
	return s.save()
}

// Count returns the number of stored tasks
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func validStatus(status string) bool {
	switch status {
	case StatusOpen, StatusDone, StatusDropped:
		return true
	}
	return false
}

type snapshot struct {
	Tasks []Task `json:"tasks"`
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read task file: %w", err)
	}

	var snap snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse task file: %w", err)
	}
	for i := range snap.Tasks {
		t := snap.Tasks[i]
		s.tasks[t.ID] = &t
	}
	return nil
}

// save writes the store to disk atomically. Callers hold s.mu.
func (s *Store) save() error {
	snap := snapshot{Tasks: make([]Task, 0, len(s.tasks))}
	for _, t := range s.tasks {
		snap.Tasks = append(snap.Tasks, *t)
	}
	sort.Slice(snap.Tasks, func(i, j int) bool {
		return snap.Tasks[i].CreatedAt.Before(snap.Tasks[j].CreatedAt)
	})

	data, err := sonic.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to encode task file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create task dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write task file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
