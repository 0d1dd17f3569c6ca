// Package view рендерит серверные страницы: каждая страница из pages/
// исполняется внутри общего шаблона layouts/main.html.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var embedded embed.FS

const (
	layoutFile = "layouts/main.html"
	layoutName = "main.html"
	pagesDir   = "pages"
)

// Options настраивает источник шаблонов и кеширование
type Options struct {
	// Dir - каталог с layouts/ и pages/; пусто - встроенные шаблоны
	Dir string
	// Cache - разобрать шаблоны один раз при старте
	Cache bool
}

// Renderer реализует render.HTMLRender для gin
type Renderer struct {
	fsys  fs.FS
	cache bool
	funcs template.FuncMap

	// заполняется только в New, дальше только читается
	templates map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// New создает рендерер. При включенном кеше все страницы разбираются сразу,
// и ошибка в любом шаблоне возвращается здесь.
func New(opts Options) (*Renderer, error) {
	var fsys fs.FS
	if opts.Dir != "" {
		fsys = os.DirFS(opts.Dir)
	} else {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded templates: %w", err)
		}
		fsys = sub
	}

	r := &Renderer{
		fsys:      fsys,
		cache:     opts.Cache,
		funcs:     template.FuncMap{"upper": strings.ToUpper},
		templates: make(map[string]*template.Template),
	}

	if r.cache {
		pages, err := r.Pages()
		if err != nil {
			return nil, err
		}
		for _, name := range pages {
			tmpl, err := r.parse(name)
			if err != nil {
				return nil, err
			}
			r.templates[name] = tmpl
		}
	}
	return r, nil
}

// Pages возвращает имена страниц без расширения
func (r *Renderer) Pages() ([]string, error) {
	files, err := fs.Glob(r.fsys, path.Join(pagesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(path.Base(f), ".html"))
	}
	return names, nil
}

func (r *Renderer) parse(name string) (*template.Template, error) {
	tmpl, err := template.New(layoutName).Funcs(r.funcs).ParseFS(r.fsys, layoutFile, path.Join(pagesDir, name+".html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %q: %w", name, err)
	}
	return tmpl, nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	if !r.cache {
		return r.parse(name)
	}
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("page %q is not defined", name)
	}
	return tmpl, nil
}

// Instance реализует render.HTMLRender
func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, err := r.lookup(name)
	if err != nil {
		return failedRender{err: err}
	}
	return render.HTML{Template: tmpl, Name: layoutName, Data: data}
}

// failedRender возвращает ошибку разбора шаблона в gin, который пишет ее в c.Errors
type failedRender struct {
	err error
}

func (f failedRender) Render(w http.ResponseWriter) error {
	return f.err
}

func (f failedRender) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if len(header["Content-Type"]) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}
