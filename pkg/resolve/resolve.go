// Package resolve maps declared dependency tokens to canonical package
// names through the provides and subpackage indexes of a record set.
//
// Lookup order is canonical name, then provides alias, then subpackage.
// When several packages claim the same alias the lexicographically
// smallest owner wins; the losing claims are reported by
// [Index.Conflicts]. The outcome never depends on map iteration order.
package resolve

import (
	"slices"
	"sort"
	"strings"

	"github.com/matzehuels/depmap/pkg/apkbuild"
)

// Source identifies which index satisfied a lookup.
type Source int

const (
	// None means the token did not resolve.
	None Source = iota
	// Canonical means the token is itself a package name.
	Canonical
	// Provides means the token is an alias declared in provides.
	Provides
	// Subpackage means the token names a split package.
	Subpackage
)

func (s Source) String() string {
	switch s {
	case Canonical:
		return "canonical"
	case Provides:
		return "provides"
	case Subpackage:
		return "subpackage"
	default:
		return "none"
	}
}

// Result is the outcome of resolving one token.
type Result struct {
	Token  string
	Name   string // canonical name, "" when unresolved
	Source Source
}

// OK reports whether the token resolved.
func (r Result) OK() bool { return r.Source != None }

// Conflict records an alias claimed by more than one package.
type Conflict struct {
	Alias  string   `json:"alias"`
	Source Source   `json:"-"`
	Kind   string   `json:"kind"`
	Owners []string `json:"owners"`
	Winner string   `json:"winner"`
}

// Index resolves tokens against a fixed record set. It is read-only after
// construction except through [Index.Add], which must not run concurrently
// with lookups.
type Index struct {
	names       map[string]struct{}
	provides    map[string]string
	subpackages map[string]string

	claims map[Source]map[string][]string
}

// NewIndex builds both alias indexes from records.
func NewIndex(records map[string]*apkbuild.Package) *Index {
	ix := &Index{
		names:       make(map[string]struct{}, len(records)),
		provides:    make(map[string]string),
		subpackages: make(map[string]string),
		claims: map[Source]map[string][]string{
			Provides:   {},
			Subpackage: {},
		},
	}

	// Pass one collects every claim, pass two settles each alias.
	for name, rec := range records {
		ix.names[name] = struct{}{}
		ix.collect(name, rec)
	}
	for src, byAlias := range ix.claims {
		for alias := range byAlias {
			ix.settle(src, alias)
		}
	}
	return ix
}

// collect records the aliases rec claims and returns them per source.
func (ix *Index) collect(name string, rec *apkbuild.Package) map[Source][]string {
	added := make(map[Source][]string)
	if rec == nil {
		return added
	}
	for _, p := range rec.Provides {
		if alias := StripVersion(p); alias != "" {
			ix.claims[Provides][alias] = append(ix.claims[Provides][alias], name)
			added[Provides] = append(added[Provides], alias)
		}
	}
	for _, sp := range rec.Subpackages {
		if sp != "" {
			ix.claims[Subpackage][sp] = append(ix.claims[Subpackage][sp], name)
			added[Subpackage] = append(added[Subpackage], sp)
		}
	}
	return added
}

// settle sorts the owners of alias and installs the smallest as winner.
func (ix *Index) settle(src Source, alias string) {
	owners := ix.claims[src][alias]
	sort.Strings(owners)
	owners = slices.Compact(owners)
	ix.claims[src][alias] = owners

	if src == Provides {
		ix.provides[alias] = owners[0]
	} else {
		ix.subpackages[alias] = owners[0]
	}
}

// Add registers one more record, applying the same tie-break as
// [NewIndex].
func (ix *Index) Add(rec *apkbuild.Package) {
	if rec == nil {
		return
	}
	ix.names[rec.Name] = struct{}{}
	for src, aliases := range ix.collect(rec.Name, rec) {
		for _, alias := range aliases {
			ix.settle(src, alias)
		}
	}
}

// Resolve returns the canonical name for token.
func (ix *Index) Resolve(token string) (string, bool) {
	r := ix.Lookup(token)
	return r.Name, r.OK()
}

// Lookup resolves token and reports which index matched.
func (ix *Index) Lookup(token string) Result {
	res := Result{Token: token}
	if ix == nil || token == "" {
		return res
	}
	if _, ok := ix.names[token]; ok {
		res.Name, res.Source = token, Canonical
		return res
	}
	if name, ok := ix.provides[StripVersion(token)]; ok {
		res.Name, res.Source = name, Provides
		return res
	}
	if name, ok := ix.subpackages[token]; ok {
		res.Name, res.Source = name, Subpackage
		return res
	}
	return res
}

// Provides returns a copy of the alias index.
func (ix *Index) Provides() map[string]string { return copyMap(ix.provides) }

// Subpackages returns a copy of the subpackage index.
func (ix *Index) Subpackages() map[string]string { return copyMap(ix.subpackages) }

// Conflicts lists aliases with more than one owner, sorted by alias.
func (ix *Index) Conflicts() []Conflict {
	var out []Conflict
	for src, byAlias := range ix.claims {
		for alias, owners := range byAlias {
			if len(owners) < 2 {
				continue
			}
			out = append(out, Conflict{
				Alias:  alias,
				Source: src,
				Kind:   src.String(),
				Owners: slices.Clone(owners),
				Winner: owners[0],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Alias != out[j].Alias {
			return out[i].Alias < out[j].Alias
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// StripVersion removes a version constraint from a provides entry:
// "cmd:foo=1.2-r0" becomes "cmd:foo".
func StripVersion(s string) string {
	if i := strings.IndexAny(s, "=<>~"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
