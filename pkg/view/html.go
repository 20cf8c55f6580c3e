package view

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PartialsDir holds templates parsed alongside every html page.
const PartialsDir = "partials"

// HTML renders html/template files. Every page is parsed together with
// the files in PartialsDir, so pages can call shared blocks.
type HTML struct {
	fsys   fs.FS
	parsed map[string]*template.Template
	group  singleflight.Group
	opts   options
	mu     sync.RWMutex
}

// NewHTML creates an html/template engine over fsys.
func NewHTML(fsys fs.FS, opts ...Option) *HTML {
	return &HTML{
		fsys:   fsys,
		opts:   buildOptions(".html", opts),
		parsed: make(map[string]*template.Template),
	}
}

// Render executes the page called name with data.
func (h *HTML) Render(_ context.Context, w io.Writer, name string, data any) error {
	file := resolveName(name, h.opts.ext)

	tmpl, err := h.lookup(file)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, file, err)
	}
	return nil
}

func (h *HTML) lookup(file string) (*template.Template, error) {
	if h.opts.noCache {
		return h.parse(file)
	}

	h.mu.RLock()
	tmpl, ok := h.parsed[file]
	h.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	v, err, _ := h.group.Do(file, func() (any, error) {
		tmpl, err := h.parse(file)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.parsed[file] = tmpl
		h.mu.Unlock()
		return tmpl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*template.Template), nil
}

func (h *HTML) parse(file string) (*template.Template, error) {
	content, err := fs.ReadFile(h.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, file)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrRender, file, err)
	}

	tmpl, err := template.New(path.Base(file)).Funcs(h.opts.funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRender, file, err)
	}

	partials, err := fs.Glob(h.fsys, path.Join(PartialsDir, "*"+h.opts.ext))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	if len(partials) > 0 {
		if tmpl, err = tmpl.ParseFS(h.fsys, partials...); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRender, file, err)
		}
	}
	return tmpl, nil
}
