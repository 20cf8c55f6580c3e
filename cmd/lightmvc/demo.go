package main

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/lightmvc/lightmvc"
)

//go:embed templates
var templates embed.FS

type post struct {
	Slug  string
	Title string
	Body  string
}

var posts = []post{
	{Slug: "hello", Title: "Hello, lightmvc", Body: "Every request runs bootstrap, route, dispatch, render and finish."},
	{Slug: "listeners", Title: "Listeners", Body: "Attach a listener with a priority to change any phase."},
}

type pages struct{}

func (c *pages) Routes(r lightmvc.Router) {
	r.GET("/", c.index)
	r.GET("/visits", c.visits)
}

func (c *pages) index(*lightmvc.Event) (any, error) {
	return lightmvc.View{"templatefile": "index", "title": "lightmvc", "posts": posts}, nil
}

// visits counts page views in the session when sessions are enabled.
func (c *pages) visits(e *lightmvc.Event) (any, error) {
	n := 0
	if sess := e.Cycle().Session(); sess != nil {
		n = lightmvc.SessionValueOr(sess, "visits", 0) + 1
		sess.SetValue("visits", n)
	}
	return lightmvc.View{"templatefile": "visits", "title": "Visits", "count": n}, nil
}

type blog struct{}

func (c *blog) Routes(r lightmvc.Router) {
	r.Route("/posts", func(r lightmvc.Router) {
		r.GET("/", c.list)
		r.GET("/{slug}", c.show)
	})
}

func (c *blog) list(*lightmvc.Event) (any, error) {
	return lightmvc.View{"templatefile": "index", "title": "Posts", "posts": posts}, nil
}

func (c *blog) show(e *lightmvc.Event) (any, error) {
	slug := e.RouteParam("slug")
	i := slices.IndexFunc(posts, func(p post) bool { return p.Slug == slug })
	if i < 0 {
		return nil, lightmvc.ErrNotFound("no post " + slug)
	}
	return lightmvc.View{"templatefile": "post", "title": posts[i].Title, "post": posts[i]}, nil
}

// newDemoApp builds the bundled application. Templates come from the
// configured templates directory when it exists, otherwise from the
// embedded set. cfg may be nil when only routes are needed.
func newDemoApp(cfg *lightmvc.Config) *lightmvc.App {
	opts := []lightmvc.Option{
		lightmvc.WithLogger("lightmvc", lightmvc.RequestIDExtractor()),
		lightmvc.WithHandlers(&pages{}, &blog{}),
		lightmvc.WithMethodNotAllowed(func(*lightmvc.Event) (any, error) {
			return lightmvc.Text(http.StatusMethodNotAllowed, "Method Not Allowed"), nil
		}),
	}
	if cfg == nil || !dirExists(templatesDir(cfg)) {
		sub, _ := fs.Sub(templates, "templates")
		opts = append(opts, lightmvc.WithTemplatesFS(sub))
	}
	return lightmvc.New(opts...)
}

func templatesDir(cfg *lightmvc.Config) string {
	dir := cfg.Templates.Dir
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(cfg.BaseDir, dir)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
