package view

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/lightmvc/lightmvc/pkg/config"
)

// Engine renders a named template into w.
type Engine interface {
	Render(ctx context.Context, w io.Writer, name string, data any) error
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, w io.Writer, name string, data any) error

// Render calls f.
func (f EngineFunc) Render(ctx context.Context, w io.Writer, name string, data any) error {
	return f(ctx, w, name, data)
}

type options struct {
	funcs      template.FuncMap
	policy     *bluemonday.Policy
	components map[string]ComponentFunc
	ext        string
	layout     string
	noCache    bool
}

// Option configures an engine.
type Option func(*options)

// WithExtension sets the extension appended to names that have none.
func WithExtension(ext string) Option {
	return func(o *options) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		o.ext = ext
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(o *options) {
		if o.funcs == nil {
			o.funcs = template.FuncMap{}
		}
		for k, v := range funcs {
			o.funcs[k] = v
		}
	}
}

// WithoutCache re-parses templates on every render.
func WithoutCache() Option {
	return func(o *options) { o.noCache = true }
}

// WithLayout wraps rendered markdown in the named html/template layout.
func WithLayout(name string) Option {
	return func(o *options) { o.layout = name }
}

// WithPolicy replaces the sanitizer applied to rendered markdown.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithComponent registers a templ component under name.
func WithComponent(name string, fn ComponentFunc) Option {
	return func(o *options) {
		if o.components == nil {
			o.components = make(map[string]ComponentFunc)
		}
		o.components[name] = fn
	}
}

// New selects an engine by cfg.Engine. Templates are read from fsys,
// which should be rooted at the templates directory. Development mode
// disables template caching.
func New(cfg config.TemplatesConfig, env string, fsys fs.FS, opts ...Option) (Engine, error) {
	base := []Option{WithExtension(cfg.Extension)}
	if env == "" || env == config.EnvDevelopment {
		base = append(base, WithoutCache())
	}
	opts = append(base, opts...)

	switch cfg.Engine {
	case "", "html":
		return NewHTML(fsys, opts...), nil
	case "markdown":
		return NewMarkdown(fsys, opts...), nil
	case "templ":
		return NewTempl(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}

func buildOptions(defaultExt string, opts []Option) options {
	o := options{ext: defaultExt}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ext == "" {
		o.ext = defaultExt
	}
	return o
}

// resolveName appends ext when name has no extension.
func resolveName(name, ext string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if path.Ext(name) == "" {
		return name + ext
	}
	return name
}
