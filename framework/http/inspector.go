package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-container/framework/container"
)

// Inspector serves read-only views of a container's tables.
type Inspector struct {
	c *container.Container
}

// NewInspector creates an Inspector over c.
func NewInspector(c *container.Container) *Inspector {
	return &Inspector{c: c}
}

// Routes mounts the inspector endpoints on r:
//
//	GET /bindings            → snapshot of bindings, aliases and defined types
//	GET /bindings/{abstract} → one binding, aliases followed once
func (in *Inspector) Routes(r chi.Router) {
	r.Get("/bindings", in.Index)
	r.Get("/bindings/{abstract}", in.Show)
}

// Index writes the full snapshot.
func (in *Inspector) Index(w http.ResponseWriter, r *http.Request) {
	NewResponse(w).Success(in.c.Snapshot())
}

// Show writes a single binding or 404. Type names containing slashes must be
// path-escaped.
func (in *Inspector) Show(w http.ResponseWriter, r *http.Request) {
	abstract := chi.URLParam(r, "abstract")
	if unescaped, err := url.PathUnescape(abstract); err == nil {
		abstract = unescaped
	}
	info, ok := in.c.Describe(abstract)
	if !ok {
		NewResponse(w).NotFound("No binding for [" + abstract + "].")
		return
	}
	NewResponse(w).Success(info)
}
