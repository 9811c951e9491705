// Package shellvar evaluates the small subset of POSIX shell parameter
// expansion that APKBUILD recipes use to assemble metadata.
//
// A [Context] is a plain string store. [Context.Expand] rewrites the
// supported forms in a fixed order:
//
//  1. ${var%%pattern} and ${var%pattern} (suffix removal)
//  2. ${var##pattern} and ${var#pattern} (prefix removal)
//  3. ${var:-default}
//  4. ${var:=default}, which also assigns when var is empty
//  5. ${var} and bare $var
//
// Patterns are shell globs where * and ? are wildcards. Command
// substitution ($(...)) and arithmetic ($((...))) are left untouched.
// Unknown variables expand to the empty string.
//
// A Context is not safe for concurrent use; give each goroutine its own.
package shellvar

import (
	"regexp"
	"strings"
)

var (
	suffixRE  = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(%%?)([^}]*)\}`)
	prefixRE  = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(##?)([^}]*)\}`)
	defaultRE = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*):-([^}]*)\}`)
	assignRE  = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*):=([^}]*)\}`)
	bracedRE  = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	bareRE    = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// Context holds shell variables for a single recipe.
type Context struct {
	vars map[string]string
}

// New returns an empty Context.
func New() *Context {
	return &Context{vars: make(map[string]string)}
}

// Set stores value under name, replacing any previous value.
func (c *Context) Set(name, value string) {
	c.vars[name] = value
}

// Get returns the value of name, or "" if it is unset.
func (c *Context) Get(name string) string {
	return c.vars[name]
}

// Lookup reports whether name has been set, even to the empty string.
func (c *Context) Lookup(name string) (string, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// SetDefault assigns value to name only when name is unset or empty.
func (c *Context) SetDefault(name, value string) {
	if c.vars[name] == "" {
		c.vars[name] = value
	}
}

// Len returns the number of variables set.
func (c *Context) Len() int { return len(c.vars) }

// Expand returns text with every supported expansion replaced.
func (c *Context) Expand(text string) string {
	if !strings.Contains(text, "$") {
		return text
	}

	text = suffixRE.ReplaceAllStringFunc(text, func(m string) string {
		g := suffixRE.FindStringSubmatch(m)
		pat := c.expandSimple(g[3])
		return trimSuffix(c.Get(g[1]), pat, g[2] == "%%")
	})

	text = prefixRE.ReplaceAllStringFunc(text, func(m string) string {
		g := prefixRE.FindStringSubmatch(m)
		pat := c.expandSimple(g[3])
		return trimPrefix(c.Get(g[1]), pat, g[2] == "##")
	})

	text = defaultRE.ReplaceAllStringFunc(text, func(m string) string {
		g := defaultRE.FindStringSubmatch(m)
		if v := c.Get(g[1]); v != "" {
			return v
		}
		return g[2]
	})

	text = assignRE.ReplaceAllStringFunc(text, func(m string) string {
		g := assignRE.FindStringSubmatch(m)
		if v := c.Get(g[1]); v != "" {
			return v
		}
		def := c.expandSimple(g[2])
		c.Set(g[1], def)
		return def
	})

	return c.expandSimple(text)
}

// Unset returns the variables text references that have never been set,
// in order of first appearance. References with a default (${var:-x} and
// ${var:=x}) do not count, nor does $name( text.
func (c *Context) Unset(text string) []string {
	if !strings.Contains(text, "$") {
		return nil
	}
	text = defaultRE.ReplaceAllString(text, "")
	text = assignRE.ReplaceAllString(text, "")

	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if _, ok := c.vars[name]; ok || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, re := range []*regexp.Regexp{suffixRE, prefixRE, bracedRE} {
		for _, g := range re.FindAllStringSubmatch(text, -1) {
			add(g[1])
		}
		text = re.ReplaceAllString(text, "")
	}
	for _, loc := range bareRE.FindAllStringSubmatchIndex(text, -1) {
		if loc[1] < len(text) && text[loc[1]] == '(' {
			continue
		}
		add(text[loc[2]:loc[3]])
	}
	return names
}

// expandSimple handles ${var} and bare $var only.
func (c *Context) expandSimple(text string) string {
	if !strings.Contains(text, "$") {
		return text
	}
	text = bracedRE.ReplaceAllStringFunc(text, func(m string) string {
		return c.Get(m[2 : len(m)-1])
	})

	locs := bareRE.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		// $name( is left alone so function-like text is not mangled.
		if end < len(text) && text[end] == '(' {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(c.Get(text[loc[2]:loc[3]]))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
