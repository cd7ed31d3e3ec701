package router

import "strings"

// ParseLocation extracts the route path from a hash-history location.
// "/app/#/script?x=1" and "#/script" both yield "/script"; a location without
// a fragment is treated as a bare path.
func ParseLocation(location string) string {
	loc := strings.TrimSpace(location)
	if idx := strings.Index(loc, "#"); idx >= 0 {
		loc = loc[idx+1:]
	}
	return NormalizePath(loc)
}

// NormalizePath trims whitespace, query and trailing slashes and guarantees a
// leading slash. The empty path is "/".
func NormalizePath(path string) string {
	p := strings.TrimSpace(path)
	if idx := strings.IndexAny(p, "?#"); idx >= 0 {
		p = p[:idx]
	}
	p = strings.TrimRight(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func normalizeBase(base string) string {
	b := strings.TrimSpace(base)
	if b == "" {
		return "/"
	}
	if !strings.HasPrefix(b, "/") {
		b = "/" + b
	}
	if !strings.HasSuffix(b, "/") {
		b += "/"
	}
	return b
}
