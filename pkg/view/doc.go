// Package view provides the template engines used to render controller
// output: html/template pages, markdown pages with YAML frontmatter, and
// registered templ components.
//
// New picks an engine from the templates section of the configuration:
//
//	engine, err := view.New(cfg.Templates, cfg.Env, os.DirFS("templates"))
//	if err != nil {
//		return err
//	}
//	err = engine.Render(ctx, w, "index", map[string]any{"view": data})
//
// Names without an extension get the engine's default one (".html" for
// html pages, ".md" for markdown). Parsed templates are cached outside
// development.
package view
