// Package tool defines the callable-tool surface the hosting agent framework
// consumes: a descriptor per operation (name, description, JSON-schema-like
// parameter map, handler) and a registry that lists and dispatches them.
//
// Handlers receive arguments as decoded JSON (strings, float64 numbers,
// []interface{} lists) and return any JSON-serializable value. Failure inside
// an operation is a value-level signal produced by the storage adapter; an
// error returned from a handler means the call itself could not be performed
// (bad arguments, unreachable listing, unknown tool).
package tool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Handler executes a tool with already-decoded arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Tool describes one callable operation.
type Tool struct {
	// Name is the unique identifier, snake_case by convention.
	Name string
	// Description is shown to the model to guide tool selection.
	Description string
	// Parameters is a minimal JSON-Schema-like map describing the arguments.
	Parameters map[string]interface{}
	// Handler runs the operation.
	Handler Handler
}

// Error wraps dispatch and argument failures with the tool name and a
// stable code for categorization.
type Error struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewError creates an Error with the given details.
func NewError(tool, message, code string) *Error {
	return &Error{Tool: tool, Message: message, Code: code}
}

// Registry holds tools in registration order and dispatches calls to them.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: slog.Default().With("component", "tool-registry"),
	}
}

// Register adds a tool. Registering a duplicate or unnamed tool is an error.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Tools returns all registered tools in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Call dispatches to the named tool.
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, NewError(name, "tool not registered", "UNKNOWN_TOOL")
	}

	start := time.Now()
	r.logger.Debug("tool.call.start", "tool", name)

	result, err := t.Handler(ctx, args)
	if err != nil {
		r.logger.Error("tool.call.error", "tool", name, "error", err.Error())
		if _, isToolErr := err.(*Error); isToolErr {
			return nil, err
		}
		return nil, NewError(name, err.Error(), "EXECUTION_ERROR")
	}

	r.logger.Debug("tool.call.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
