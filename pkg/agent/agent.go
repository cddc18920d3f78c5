// Package agent implements the core Pranav agent: keyword-driven input
// processing, task dispatch and storage-backed memory. The conversational
// surface is deliberately simple; responses are fixed templates rather than
// model output.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/pranav-agent/pranav/pkg/logger"
	"github.com/pranav-agent/pranav/pkg/storage"
)

const (
	// DefaultName is the agent name used when none is configured.
	DefaultName = "Pranav"

	// MemoryNamespace is the storage namespace learned data is kept in.
	MemoryNamespace = "memory"
)

// TaskStatusNotImplemented is the status reported for tasks that have no
// implementation.
const TaskStatusNotImplemented = "not_implemented"

// TaskResult is the outcome of a task execution. Status is a machine-readable
// state ("not_implemented" for tasks without an implementation); unknown
// tasks are a result state, never an error.
type TaskResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Agent is a configured Pranav instance. Methods are safe for concurrent
// use; when no storage backend is attached, learned data lives in process
// memory only.
type Agent struct {
	name         string
	config       map[string]any
	capabilities []string
	store        storage.Backend

	mu     sync.RWMutex
	memory map[string]json.RawMessage
}

// Option configures an Agent during construction.
type Option func(*Agent)

// WithName overrides the default agent name.
func WithName(name string) Option {
	return func(a *Agent) {
		if name != "" {
			a.name = name
		}
	}
}

// WithConfig attaches free-form configuration values.
func WithConfig(config map[string]any) Option {
	return func(a *Agent) {
		for key, value := range config {
			a.config[key] = value
		}
	}
}

// WithStore attaches a storage backend for persistent memory.
func WithStore(store storage.Backend) Option {
	return func(a *Agent) {
		a.store = store
	}
}

// WithCapabilities records the agent's declared capabilities.
func WithCapabilities(capabilities ...string) Option {
	return func(a *Agent) {
		a.capabilities = append(a.capabilities, capabilities...)
	}
}

// New constructs an Agent with the given options.
func New(ctx context.Context, opts ...Option) *Agent {
	a := &Agent{
		name:   DefaultName,
		config: make(map[string]any),
		memory: make(map[string]json.RawMessage),
	}
	for _, opt := range opts {
		opt(a)
	}

	logger.G(ctx).WithField("agent", a.name).Info("agent initialized successfully")
	return a
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.name
}

// Capabilities returns the agent's declared capabilities.
func (a *Agent) Capabilities() []string {
	out := make([]string, len(a.capabilities))
	copy(out, a.capabilities)
	return out
}

// ConfigValue looks up a configuration value by key.
func (a *Agent) ConfigValue(key string) (any, bool) {
	value, ok := a.config[key]
	return value, ok
}

// ProcessInput produces the agent's response to free-form user input. It is
// pure string logic and never fails.
func (a *Agent) ProcessInput(ctx context.Context, userInput string) string {
	logger.G(ctx).WithField("length", len(userInput)).Debug("processing input")

	if userInput == "" {
		return "I didn't receive any input. How can I help you?"
	}

	if strings.Contains(strings.ToLower(userInput), "hello") {
		return fmt.Sprintf("Hello! I'm %s, your intelligent agent. How can I assist you today?", a.name)
	}

	return fmt.Sprintf("I received your input: '%s'. This agent is still in development.", userInput)
}

// ExecuteTask runs the named task with the given parameters. Task execution
// is a stub: every task reports not_implemented. The result shape is the
// contract callers and the API rely on.
func (a *Agent) ExecuteTask(ctx context.Context, taskName string, parameters map[string]any) (TaskResult, error) {
	logger.G(ctx).WithFields(map[string]any{
		"task":       taskName,
		"parameters": len(parameters),
	}).Debug("executing task")

	return TaskResult{
		Status:  TaskStatusNotImplemented,
		Message: fmt.Sprintf("Task '%s' is not implemented yet.", taskName),
	}, nil
}

// Learn stores new information in the agent's memory. With a storage backend
// attached the data is persisted to the memory namespace; otherwise it is
// kept in process memory.
func (a *Agent) Learn(ctx context.Context, data map[string]any) error {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if a.store != nil {
			if err := a.store.Store(ctx, key, data[key], MemoryNamespace); err != nil {
				return errors.Wrapf(err, "failed to learn %q", key)
			}
			continue
		}

		encoded, err := json.Marshal(data[key])
		if err != nil {
			return errors.Wrapf(err, "failed to encode %q", key)
		}
		a.mu.Lock()
		a.memory[key] = encoded
		a.mu.Unlock()
	}

	logger.G(ctx).WithField("keys", len(data)).Debug("learned new data")
	return nil
}

// Recall retrieves previously learned data. The boolean reports whether the
// key was known; absence is not an error.
func (a *Agent) Recall(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if a.store != nil {
		raw, err := a.store.Retrieve(ctx, key, MemoryNamespace)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, false, nil
			}
			return nil, false, errors.Wrapf(err, "failed to recall %q", key)
		}
		return raw, true, nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	raw, ok := a.memory[key]
	return raw, ok, nil
}
