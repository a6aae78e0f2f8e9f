// Package site renders the HTML pages and serves their static assets.
package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
)

// Presenter renders the service pages.
type Presenter struct {
	pages map[string]*template.Template
}

var pageNames = []string{"index", "dashboard", "wrapped", "error"}

// New parses the embedded templates.
func New() (*Presenter, error) {
	p := &Presenter{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplate, name, err)
		}
		p.pages[name] = t
	}
	return p, nil
}

// Register attaches the static asset routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// IndexView is the landing page model.
type IndexView struct {
	LoggedIn bool
}

// ErrorView is the error page model.
type ErrorView struct {
	Status  int
	Title   string
	Message string
}

// Index renders the landing page.
func (p *Presenter) Index(w http.ResponseWriter, v IndexView) error {
	return p.render(w, http.StatusOK, "index", v)
}

// Dashboard renders the profile page.
func (p *Presenter) Dashboard(w http.ResponseWriter, v DashboardView) error {
	return p.render(w, http.StatusOK, "dashboard", v)
}

// Wrapped renders the recap card page.
func (p *Presenter) Wrapped(w http.ResponseWriter, v WrappedView) error {
	return p.render(w, http.StatusOK, "wrapped", v)
}

// Error renders an error page with status.
func (p *Presenter) Error(w http.ResponseWriter, status int, message string) error {
	return p.render(w, status, "error", ErrorView{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	})
}

// render executes into a buffer first so a template failure never leaves a
// half-written page behind.
func (p *Presenter) render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("%w: unknown page %q", ErrRender, name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
