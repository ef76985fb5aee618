// Package skills normalizes skill names and scans free text for known skills.
package skills

import (
	"sort"
	"strings"
)

var aliases = map[string]string{
	"golang":              "go",
	"k8s":                 "kubernetes",
	"js":                  "javascript",
	"ts":                  "typescript",
	"nodejs":              "node.js",
	"reactjs":             "react",
	"react.js":            "react",
	"vuejs":               "vue",
	"vue.js":              "vue",
	"postgres":            "postgresql",
	"amazon web services": "aws",
	"gcp":                 "google cloud",
	"ml":                  "machine learning",
	"csharp":              "c#",
	"cpp":                 "c++",
	"rest apis":           "rest api",
	"restful":             "rest api",
	"mongo":               "mongodb",
	"elastic":             "elasticsearch",
}

// Normalize lowercases and trims a skill name and resolves common aliases.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(skill string) string {
	s := strings.ToLower(strings.TrimSpace(skill))
	s = strings.Join(strings.Fields(s), " ")
	if canonical, ok := aliases[s]; ok {
		return canonical
	}
	return s
}

// Set is a set of normalized skill names.
type Set map[string]struct{}

// NewSet builds a set from raw names; blanks are skipped.
func NewSet(names ...string) Set {
	set := make(Set, len(names))
	for _, name := range names {
		set.Add(name)
	}
	return set
}

// Add inserts the normalized form of name.
func (s Set) Add(name string) {
	if n := Normalize(name); n != "" {
		s[n] = struct{}{}
	}
}

// Has reports whether the normalized form of name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[Normalize(name)]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the members present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for name := range s {
		if _, ok := other[name]; ok {
			out[name] = struct{}{}
		}
	}
	return out
}

// Difference returns the members of s missing from other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for name := range s {
		if _, ok := other[name]; !ok {
			out[name] = struct{}{}
		}
	}
	return out
}
