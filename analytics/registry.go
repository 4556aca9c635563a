package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/search"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Namespace is the tool namespace of every registered function.
const Namespace = "analytics"

// Errors returned by the registry.
var (
	ErrFunctionNotFound = errors.New("analytic function not found")
	ErrFunctionExists   = errors.New("analytic function already registered")
	ErrInvalidArgs      = errors.New("invalid arguments")
)

// HandlerFunc is the signature of an analytic function.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Function defines a named analytic function with its handler.
type Function struct {
	Name        string
	Title       string
	Description string
	Notes       string
	InputSchema map[string]any
	Tags        []string
	Handler     HandlerFunc
}

// Registry holds analytic functions and their discovery metadata.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: Call passes ctx to the handler.
// - Errors: unknown IDs return ErrFunctionNotFound.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
	index index.Index
	docs  *tooldoc.InMemoryStore
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	idx := index.NewInMemoryIndex(index.IndexOptions{
		Searcher: search.NewBM25Searcher(search.BM25Config{}),
	})
	return &Registry{
		funcs: make(map[string]Function),
		index: idx,
		docs:  tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx}),
	}
}

// NewDefaultRegistry creates a registry holding the built-in functions.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, fn := range builtins() {
		if err := r.Register(fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds fn to the registry, its index and its doc store.
func (r *Registry) Register(fn Function) error {
	if fn.Name == "" {
		return fmt.Errorf("function name is required")
	}
	if fn.Handler == nil {
		return fmt.Errorf("function %q has no handler", fn.Name)
	}
	schema := fn.InputSchema
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[fn.Name]; exists {
		return fmt.Errorf("%w: %s", ErrFunctionExists, fn.Name)
	}

	tool := model.Tool{
		Tool: mcp.Tool{
			Name:        fn.Name,
			Title:       fn.Title,
			Description: fn.Description,
			InputSchema: schema,
		},
		Namespace: Namespace,
		Tags:      model.NormalizeTags(fn.Tags),
	}
	if err := r.index.RegisterTool(tool, model.NewLocalBackend(fn.Name)); err != nil {
		return fmt.Errorf("indexing %s: %w", fn.Name, err)
	}
	if err := r.docs.RegisterDoc(FunctionID(fn.Name), tooldoc.DocEntry{
		Summary: fn.Description,
		Notes:   fn.Notes,
	}); err != nil {
		return fmt.Errorf("documenting %s: %w", fn.Name, err)
	}
	r.funcs[fn.Name] = fn
	return nil
}

// Call invokes the function identified by id.
func (r *Registry) Call(ctx context.Context, id string, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn, ok := r.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, id)
	}
	if args == nil {
		args = map[string]any{}
	}
	return fn.Handler(ctx, args)
}

// Search finds functions matching query.
func (r *Registry) Search(query string, limit int) ([]index.Summary, error) {
	return r.index.Search(query, limit)
}

// Describe returns the documentation of the function identified by id.
func (r *Registry) Describe(id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	if _, ok := r.lookup(id); !ok {
		return tooldoc.ToolDoc{}, fmt.Errorf("%w: %s", ErrFunctionNotFound, id)
	}
	return r.docs.DescribeTool(FunctionID(bareName(id)), level)
}

// List returns every registered function as a tool, sorted by name.
func (r *Registry) List() []model.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Tool, 0, len(r.funcs))
	for _, fn := range r.funcs {
		out = append(out, model.Tool{
			Tool: mcp.Tool{
				Name:        fn.Name,
				Title:       fn.Title,
				Description: fn.Description,
			},
			Namespace: Namespace,
			Tags:      model.NormalizeTags(fn.Tags),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.funcs)
}

func (r *Registry) lookup(id string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, name, found := strings.Cut(id, ":")
	if found && ns != Namespace {
		return Function{}, false
	}
	if !found {
		name = id
	}
	fn, ok := r.funcs[name]
	return fn, ok
}

// FunctionID returns the canonical ID of the named function.
func FunctionID(name string) string {
	return Namespace + ":" + name
}

func bareName(id string) string {
	if _, name, found := strings.Cut(id, ":"); found {
		return name
	}
	return id
}
