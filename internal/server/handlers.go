package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leaptmpl/internal/data"
	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/template"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "ok")
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.engine.Source().(template.Lister)
	if !ok {
		http.Error(w, "template source cannot list templates", http.StatusNotImplemented)
		return
	}
	names, err := lister.List(r.Context())
	if err != nil {
		s.logger.Error("list templates failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(names)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		http.Error(w, "template name is required", http.StatusBadRequest)
		return
	}

	ctx, err := s.requestContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.engine.Render(r.Context(), name, ctx)
	if err != nil {
		status := statusFor(name, err)
		if status == http.StatusInternalServerError {
			s.logger.Error("render failed", "name", name, "error", err)
		}
		http.Error(w, err.Error(), status)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write([]byte(out))
}

// requestContext layers the query parameters over the base data.
// A repeated parameter keeps its last value.
func (s *Server) requestContext(r *http.Request) (core.Context, error) {
	query := r.URL.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assignments := make([]string, 0, len(keys))
	for _, k := range keys {
		values := query[k]
		assignments = append(assignments, k+"="+values[len(values)-1])
	}
	overrides, err := data.ParseSet(assignments)
	if err != nil {
		return nil, err
	}

	ctx := s.data.Clone()
	ctx.Merge(overrides)
	return ctx, nil
}

// statusFor maps a render error onto an HTTP status. Only the requested
// template itself being absent is a 404; broken templates are 422.
func statusFor(name string, err error) int {
	var nf *template.NotFoundError
	if errors.As(err, &nf) && nf.Name == name {
		return http.StatusNotFound
	}
	var syntaxErr *core.SyntaxError
	var contextErr *core.ContextError
	if errors.As(err, &syntaxErr) || errors.As(err, &contextErr) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, template.ErrNotFound) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.notifier.subscribe()
	defer s.notifier.unsubscribe(ch)

	_, _ = fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case name := <-ch:
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", name); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
