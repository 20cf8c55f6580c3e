package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sync"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// Markdown renders markdown pages with optional YAML frontmatter.
// The body is a text/template executed with the render data, converted
// to HTML by goldmark and sanitized. With a layout configured, the
// result is placed in the layout as .Content next to .Meta and .Data.
type Markdown struct {
	fsys   fs.FS
	md     goldmark.Markdown
	policy *bluemonday.Policy
	pages  map[string]*page
	layout *template.Template
	group  singleflight.Group
	opts   options
	mu     sync.RWMutex
}

type page struct {
	meta map[string]any
	body *texttemplate.Template
}

// NewMarkdown creates a markdown engine over fsys.
func NewMarkdown(fsys fs.FS, opts ...Option) *Markdown {
	o := buildOptions(".md", opts)
	policy := o.policy
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	return &Markdown{
		fsys:   fsys,
		opts:   o,
		policy: policy,
		pages:  make(map[string]*page),
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render converts the page called name and writes the HTML to w.
func (m *Markdown) Render(_ context.Context, w io.Writer, name string, data any) error {
	file := resolveName(name, m.opts.ext)

	p, err := m.page(file)
	if err != nil {
		return err
	}

	var src bytes.Buffer
	if err := p.body.Execute(&src, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, file, err)
	}

	var out bytes.Buffer
	if err := m.md.Convert(src.Bytes(), &out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, file, err)
	}
	content := m.policy.SanitizeBytes(out.Bytes())

	if m.opts.layout == "" {
		_, err := w.Write(content)
		return err
	}

	layout, err := m.layoutTemplate()
	if err != nil {
		return err
	}
	err = layout.Execute(w, map[string]any{
		"Content": template.HTML(content), //nolint:gosec // sanitized above
		"Meta":    p.meta,
		"Data":    data,
	})
	if err != nil {
		return fmt.Errorf("%w: layout %s: %w", ErrRender, m.opts.layout, err)
	}
	return nil
}

// Meta returns the frontmatter of the page called name.
func (m *Markdown) Meta(name string) (map[string]any, error) {
	p, err := m.page(resolveName(name, m.opts.ext))
	if err != nil {
		return nil, err
	}
	return p.meta, nil
}

func (m *Markdown) page(file string) (*page, error) {
	if m.opts.noCache {
		return m.parse(file)
	}

	m.mu.RLock()
	p, ok := m.pages[file]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := m.group.Do(file, func() (any, error) {
		p, err := m.parse(file)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.pages[file] = p
		m.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*page), nil
}

func (m *Markdown) parse(file string) (*page, error) {
	content, err := fs.ReadFile(m.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, file)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrRender, file, err)
	}

	meta, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	tmpl, err := texttemplate.New(file).Funcs(texttemplate.FuncMap(m.opts.funcs)).Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRender, file, err)
	}
	return &page{meta: meta, body: tmpl}, nil
}

func (m *Markdown) layoutTemplate() (*template.Template, error) {
	if !m.opts.noCache {
		m.mu.RLock()
		l := m.layout
		m.mu.RUnlock()
		if l != nil {
			return l, nil
		}
	}

	file := resolveName(m.opts.layout, ".html")
	content, err := fs.ReadFile(m.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrTemplateNotFound, file, err)
	}
	l, err := template.New(file).Funcs(m.opts.funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrRender, file, err)
	}

	if !m.opts.noCache {
		m.mu.Lock()
		m.layout = l
		m.mu.Unlock()
	}
	return l, nil
}

var fence = []byte("---")

// splitFrontmatter separates a leading "---" delimited YAML block from
// the body. Content without one has empty metadata.
func splitFrontmatter(content []byte) (map[string]any, []byte, error) {
	meta := make(map[string]any)
	if !bytes.HasPrefix(content, fence) {
		return meta, content, nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, fence), "\r\n")
	end := bytes.Index(rest, fence)
	if end == -1 {
		return nil, nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	head := rest[:end]
	body := rest[end+len(fence):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	if len(bytes.TrimSpace(head)) > 0 {
		if err := yaml.Unmarshal(head, &meta); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFrontmatter, err)
		}
	}
	return meta, body, nil
}
