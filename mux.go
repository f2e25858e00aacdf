package mailq

import (
	"context"
	"sort"

	"github.com/UniQw/mailq/job"
)

// HandlerFunc processes one job. A returned error (or a panic) is a failed
// attempt and feeds the retry/dead-letter path, so handlers must be safe to
// run more than once for the same job.
type HandlerFunc func(ctx context.Context, j *job.Job) error

// Middleware is a function that wraps a HandlerFunc to provide cross-cutting concerns.
type Middleware func(HandlerFunc) HandlerFunc

// Mux routes jobs to their respective handlers based on job type.
type Mux struct {
	handlers    map[job.Type]HandlerFunc
	middlewares []Middleware
}

// NewMux creates a new job Mux.
func NewMux() *Mux {
	return &Mux{
		handlers:    make(map[job.Type]HandlerFunc),
		middlewares: []Middleware{},
	}
}

// Handle registers a handler for a specific job type. Registering the same type twice replaces the handler.
func (m *Mux) Handle(t job.Type, fn HandlerFunc) {
	m.handlers[t] = fn
}

// Use adds middleware(s) to the mux. Middlewares are executed in the order they are added.
func (m *Mux) Use(mws ...Middleware) {
	m.middlewares = append(m.middlewares, mws...)
}

// Types returns the registered job types, sorted.
func (m *Mux) Types() []job.Type {
	out := make([]job.Type, 0, len(m.handlers))
	for t := range m.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, k int) bool { return out[i] < out[k] })
	return out
}

// Lookup returns the middleware-wrapped handler for t.
func (m *Mux) Lookup(t job.Type) (HandlerFunc, bool) {
	h, ok := m.handlers[t]
	if !ok {
		return nil, false
	}
	return m.wrapHandler(h), true
}

func (m *Mux) wrapHandler(h HandlerFunc) HandlerFunc {
	for i := len(m.middlewares) - 1; i >= 0; i-- {
		h = m.middlewares[i](h)
	}
	return h
}
