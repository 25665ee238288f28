package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"google.golang.org/genai"
)

// FunctionDeclaration describes a tool the model may call during a turn.
type FunctionDeclaration struct {
	Name             string
	Description      string
	ParametersSchema any
	ResponseSchema   any
	FunctionCall     FunctionCallFn
}

type FunctionCallFn func(ctx context.Context, args map[string]any) (map[string]any, error)

// Toolset holds the functions offered to the model.
type Toolset struct {
	mu        sync.RWMutex
	functions map[string]*FunctionDeclaration
}

func NewToolset() *Toolset {
	return &Toolset{functions: make(map[string]*FunctionDeclaration)}
}

func (t *Toolset) AddFunctionCall(fd *FunctionDeclaration) error {
	if fd == nil {
		return fmt.Errorf("function declaration cannot be nil")
	}

	if fd.Name == "" {
		return fmt.Errorf("function name cannot be empty")
	}

	if fd.FunctionCall == nil {
		return fmt.Errorf("function call implementation cannot be nil")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.functions[fd.Name]; exists {
		return fmt.Errorf("function %s already registered", fd.Name)
	}
	t.functions[fd.Name] = fd

	return nil
}

// Names returns the registered function names in sorted order.
func (t *Toolset) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.functions))
	for name := range t.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named function.
func (t *Toolset) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	t.mu.RLock()
	fd, exists := t.functions[name]
	t.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("function %s not found", name)
	}

	return fd.FunctionCall(ctx, args)
}

// genaiTools converts the set to genai tools. An empty set yields nil so
// the request carries no tool block at all.
func (t *Toolset) genaiTools() []*genai.Tool {
	if t == nil {
		return nil
	}

	names := t.Names()
	if len(names) == 0 {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	functions := make([]*genai.FunctionDeclaration, 0, len(names))
	for _, name := range names {
		fd := t.functions[name]
		functions = append(functions, &genai.FunctionDeclaration{
			Name:                 fd.Name,
			Description:          fd.Description,
			ParametersJsonSchema: fd.ParametersSchema,
			ResponseJsonSchema:   fd.ResponseSchema,
		})
	}

	return []*genai.Tool{
		{
			FunctionDeclarations: functions,
		},
	}
}
