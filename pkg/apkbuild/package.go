package apkbuild

import (
	"encoding/json"
	"fmt"
)

// DefaultArch is used when a recipe does not declare arch.
const DefaultArch = "all"

// Package is the metadata recovered from one APKBUILD.
//
// Dependency lists hold raw tokens as declared (after cleaning); they are
// resolved to canonical names by the resolve package. List fields are never
// nil once a Package has been produced by [Parse] or decoded from JSON.
type Package struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Release     int    `json:"release"`
	Description string `json:"description"`
	URL         string `json:"url"`
	License     string `json:"license"`
	Arch        string `json:"arch"`

	Depends          []string `json:"depends"`
	MakeDepends      []string `json:"makedepends"`
	MakeDependsBuild []string `json:"makedepends_build"`
	MakeDependsHost  []string `json:"makedepends_host"`
	CheckDepends     []string `json:"checkdepends"`

	Provides    []string `json:"provides"`
	Replaces    []string `json:"replaces"`
	Subpackages []string `json:"subpackages"`

	Maintainer   string   `json:"maintainer"`
	Contributors []string `json:"contributors"`

	Repo     string `json:"repo"`
	FilePath string `json:"filepath"`
}

// FullVersion returns the Alpine version string "<pkgver>-r<pkgrel>".
func (p *Package) FullVersion() string {
	return fmt.Sprintf("%s-r%d", p.Version, p.Release)
}

// RuntimeDeps returns the runtime dependency tokens.
func (p *Package) RuntimeDeps() []string { return p.Depends }

// BuildDeps returns makedepends, makedepends_build and makedepends_host
// merged in declaration order without duplicates.
func (p *Package) BuildDeps() []string {
	return union(p.MakeDepends, p.MakeDependsBuild, p.MakeDependsHost)
}

// CheckDeps returns the check dependency tokens.
func (p *Package) CheckDeps() []string { return p.CheckDepends }

// AllDeps returns every dependency token of every kind, deduplicated.
func (p *Package) AllDeps() []string {
	return union(p.Depends, p.MakeDepends, p.MakeDependsBuild, p.MakeDependsHost, p.CheckDepends)
}

// Normalize replaces nil lists with empty ones and applies the arch default.
func (p *Package) Normalize() {
	for _, l := range []*[]string{
		&p.Depends, &p.MakeDepends, &p.MakeDependsBuild, &p.MakeDependsHost,
		&p.CheckDepends, &p.Provides, &p.Replaces, &p.Subpackages, &p.Contributors,
	} {
		if *l == nil {
			*l = []string{}
		}
	}
	if p.Arch == "" {
		p.Arch = DefaultArch
	}
}

type packageJSON Package

// MarshalJSON encodes p with empty lists written as [] rather than null.
func (p Package) MarshalJSON() ([]byte, error) {
	p.Normalize()
	return json.Marshal(packageJSON(p))
}

// UnmarshalJSON decodes p and normalizes absent lists to empty ones.
func (p *Package) UnmarshalJSON(data []byte) error {
	var raw packageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Package(raw)
	p.Normalize()
	return nil
}

func union(lists ...[]string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, l := range lists {
		for _, s := range l {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
