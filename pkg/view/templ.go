package view

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/a-h/templ"
)

// ComponentFunc builds a templ component from render data.
type ComponentFunc func(data any) templ.Component

// Component adapts a typed constructor. It accepts data of type T, or a
// map holding T under the "view" key.
func Component[T any](fn func(T) templ.Component) ComponentFunc {
	return func(data any) templ.Component {
		if v, ok := data.(T); ok {
			return fn(v)
		}
		if m, ok := data.(map[string]any); ok {
			if v, ok := m["view"].(T); ok {
				return fn(v)
			}
		}
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			var zero T
			return fmt.Errorf("%w: want %T, got %T", ErrRender, zero, data)
		})
	}
}

// Templ renders registered templ components by name.
type Templ struct {
	components map[string]ComponentFunc
	mu         sync.RWMutex
}

// NewTempl creates a templ registry with the components passed through
// WithComponent.
func NewTempl(opts ...Option) *Templ {
	o := buildOptions("", opts)
	components := make(map[string]ComponentFunc, len(o.components))
	maps.Copy(components, o.components)
	return &Templ{components: components}
}

// Register adds or replaces a component.
func (t *Templ) Register(name string, fn ComponentFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.components[name] = fn
}

// Render renders the component called name.
func (t *Templ) Render(ctx context.Context, w io.Writer, name string, data any) error {
	t.mu.RLock()
	fn, ok := t.components[name]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: component %q", ErrTemplateNotFound, name)
	}
	if err := fn(data).Render(ctx, w); err != nil {
		return fmt.Errorf("%w: component %q: %w", ErrRender, name, err)
	}
	return nil
}
