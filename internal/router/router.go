// Package router maps hash-style locations to named, lazily loaded views.
//
// The table is declared once and never changes. A view is built the first time
// its route resolves; later resolutions reuse it. Failed loads are not cached
// and are retried on the next resolution.
package router

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrNoRoute reports a path that is not in the table.
	ErrNoRoute = errors.New("no route")
	// ErrInvalidRoute reports a malformed table entry at construction.
	ErrInvalidRoute = errors.New("invalid route")
)

// Loader builds a view on first use.
type Loader[V any] func() (V, error)

// Route declares one table entry.
type Route[V any] struct {
	Path string
	Name string
	Load Loader[V]
}

// Match is a resolved route.
type Match[V any] struct {
	Path string
	Name string
	View V
}

// Info describes a route without loading it.
type Info struct {
	Path   string
	Name   string
	Loaded bool
}

type entry[V any] struct {
	route Route[V]

	mu     sync.Mutex
	loaded bool
	view   V
}

func (e *entry[V]) resolve() (V, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return e.view, nil
	}
	view, err := e.route.Load()
	if err != nil {
		var zero V
		return zero, fmt.Errorf("load view %q: %w", e.route.Name, err)
	}
	e.view = view
	e.loaded = true
	return view, nil
}

func (e *entry[V]) isLoaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Router is a static route table.
type Router[V any] struct {
	base   string
	order  []*entry[V]
	byPath map[string]*entry[V]
	byName map[string]*entry[V]
}

// New builds a router. base is the history prefix used by Href. Every route
// needs a unique path, a unique name and a loader.
func New[V any](base string, routes ...Route[V]) (*Router[V], error) {
	r := &Router[V]{
		base:   normalizeBase(base),
		byPath: make(map[string]*entry[V], len(routes)),
		byName: make(map[string]*entry[V], len(routes)),
	}
	for i, route := range routes {
		path := NormalizePath(route.Path)
		name := strings.TrimSpace(route.Name)
		switch {
		case strings.TrimSpace(route.Path) == "":
			return nil, fmt.Errorf("%w: route %d has no path", ErrInvalidRoute, i)
		case name == "":
			return nil, fmt.Errorf("%w: route %q has no name", ErrInvalidRoute, path)
		case route.Load == nil:
			return nil, fmt.Errorf("%w: route %q has no loader", ErrInvalidRoute, path)
		}
		if _, dup := r.byPath[path]; dup {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidRoute, path)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidRoute, name)
		}
		e := &entry[V]{route: Route[V]{Path: path, Name: name, Load: route.Load}}
		r.order = append(r.order, e)
		r.byPath[path] = e
		r.byName[name] = e
	}
	if len(r.order) == 0 {
		return nil, fmt.Errorf("%w: empty route table", ErrInvalidRoute)
	}
	return r, nil
}

// Resolve returns the route for path, loading its view on first use.
// Unknown paths yield ErrNoRoute.
func (r *Router[V]) Resolve(path string) (Match[V], error) {
	e, ok := r.byPath[NormalizePath(path)]
	if !ok {
		return Match[V]{}, fmt.Errorf("%w: %s", ErrNoRoute, NormalizePath(path))
	}
	return r.match(e)
}

// ResolveName resolves a route by its name.
func (r *Router[V]) ResolveName(name string) (Match[V], error) {
	e, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Match[V]{}, fmt.Errorf("%w: name %q", ErrNoRoute, name)
	}
	return r.match(e)
}

// ResolveLocation resolves a hash location such as "/#/script".
func (r *Router[V]) ResolveLocation(location string) (Match[V], error) {
	return r.Resolve(ParseLocation(location))
}

func (r *Router[V]) match(e *entry[V]) (Match[V], error) {
	view, err := e.resolve()
	if err != nil {
		return Match[V]{}, err
	}
	return Match[V]{Path: e.route.Path, Name: e.route.Name, View: view}, nil
}

// Has reports whether path is in the table, without loading anything.
func (r *Router[V]) Has(path string) bool {
	_, ok := r.byPath[NormalizePath(path)]
	return ok
}

// Routes lists the table in declaration order.
func (r *Router[V]) Routes() []Info {
	out := make([]Info, 0, len(r.order))
	for _, e := range r.order {
		out = append(out, Info{Path: e.route.Path, Name: e.route.Name, Loaded: e.isLoaded()})
	}
	return out
}

// Home returns the first declared path.
func (r *Router[V]) Home() string {
	return r.order[0].route.Path
}

// Next returns the path declared after path, wrapping around. Unknown paths
// start over at the first route.
func (r *Router[V]) Next(path string) string {
	return r.step(path, 1)
}

// Prev returns the path declared before path, wrapping around.
func (r *Router[V]) Prev(path string) string {
	return r.step(path, -1)
}

func (r *Router[V]) step(path string, delta int) string {
	n := len(r.order)
	idx := r.indexOf(NormalizePath(path))
	if idx < 0 {
		return r.order[0].route.Path
	}
	return r.order[((idx+delta)%n+n)%n].route.Path
}

func (r *Router[V]) indexOf(path string) int {
	for i, e := range r.order {
		if e.route.Path == path {
			return i
		}
	}
	return -1
}

// Href renders path as a hash-history location under the router's base.
func (r *Router[V]) Href(path string) string {
	return r.base + "#" + NormalizePath(path)
}

// Base returns the history prefix.
func (r *Router[V]) Base() string {
	return r.base
}
