// Package frames extracts qualified names from "at" frames and resolves
// them to the host application's components.
package frames

import (
	"sort"
	"strings"
)

const framePrefix = "at "

// QualifiedName returns the dotted class name of an "at" frame:
// "at com.app.Users.find(Users.java:88)" yields "com.app.Users".
// ok is false when the line is not a frame or the name cannot be extracted.
func QualifiedName(line string) (string, bool) {
	s, found := strings.CutPrefix(strings.TrimSpace(line), framePrefix)
	if !found {
		return "", false
	}

	paren := strings.LastIndex(s, "(")
	if paren < 0 {
		return "", false
	}
	method := strings.TrimSpace(s[:paren])

	dot := strings.LastIndex(method, ".")
	if dot <= 0 {
		return "", false
	}
	return method[:dot], true
}

// Registry resolves a dotted class name to the component that owns it.
type Registry interface {
	Lookup(name string) (component string, ok bool)
}

// ResolveComponent scans lines top to bottom and returns the component of the
// last frame the registry resolves. Lines that are not frames are skipped.
func ResolveComponent(lines []string, reg Registry) (string, bool) {
	if reg == nil {
		return "", false
	}

	var component string
	var found bool
	for _, line := range lines {
		name, ok := QualifiedName(line)
		if !ok {
			continue
		}
		if c, ok := reg.Lookup(name); ok {
			component, found = c, true
		}
	}
	return component, found
}

type prefixEntry struct {
	prefix    string
	component string
}

// PrefixRegistry maps dotted package prefixes to components.
// The longest prefix matching on a dot boundary wins.
type PrefixRegistry struct {
	entries []prefixEntry
}

// NewPrefixRegistry builds a registry from component name -> package prefixes.
func NewPrefixRegistry(components map[string][]string) *PrefixRegistry {
	r := &PrefixRegistry{}
	for component, prefixes := range components {
		for _, p := range prefixes {
			p = strings.TrimSuffix(strings.TrimSpace(p), ".")
			if p == "" {
				continue
			}
			r.entries = append(r.entries, prefixEntry{prefix: p, component: component})
		}
	}
	sort.Slice(r.entries, func(i, j int) bool {
		a, b := r.entries[i], r.entries[j]
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		if a.prefix != b.prefix {
			return a.prefix < b.prefix
		}
		return a.component < b.component
	})
	return r
}

// Lookup implements Registry.
func (r *PrefixRegistry) Lookup(name string) (string, bool) {
	for _, e := range r.entries {
		if name == e.prefix || strings.HasPrefix(name, e.prefix+".") {
			return e.component, true
		}
	}
	return "", false
}

// Components returns the distinct component names, sorted.
func (r *PrefixRegistry) Components() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range r.entries {
		if !seen[e.component] {
			seen[e.component] = true
			names = append(names, e.component)
		}
	}
	sort.Strings(names)
	return names
}
