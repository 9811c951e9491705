package apkbuild

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/depmap/pkg/shellvar"
)

// ErrNotAPackage is returned when a recipe has no resolvable pkgname.
var ErrNotAPackage = errors.New("not a package")

// Recognised recipe variables.
const (
	VarName             = "pkgname"
	VarVersion          = "pkgver"
	VarRelease          = "pkgrel"
	VarDescription      = "pkgdesc"
	VarURL              = "url"
	VarArch             = "arch"
	VarLicense          = "license"
	VarDepends          = "depends"
	VarMakeDepends      = "makedepends"
	VarMakeDependsBuild = "makedepends_build"
	VarMakeDependsHost  = "makedepends_host"
	VarCheckDepends     = "checkdepends"
	VarProvides         = "provides"
	VarReplaces         = "replaces"
	VarSubpackages      = "subpackages"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+._-]*$`)

// ParseFile reads and parses the recipe at path.
func ParseFile(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(string(data), path)
}

// Parse extracts a Package from recipe content. path is used for the
// directory-name fallback and repository detection and may be empty.
//
// Parse keeps no shared state and is safe to call concurrently.
func Parse(content, path string) (*Package, error) {
	p := &parser{
		content: content,
		vars:    shellvar.New(),
		raw:     make(map[string]string),
	}
	return p.parse(path)
}

type parser struct {
	content string
	vars    *shellvar.Context
	raw     map[string]string // last raw value per variable

	seenName bool
	rawName  string
	rawQuote byte
	name     string // pinned canonical name during the second pass
}

func (p *parser) parse(path string) (*Package, error) {
	stmts := Lex(p.content)

	p.replay(stmts)
	if !p.seenName {
		return nil, ErrNotAPackage
	}
	name := p.resolveName(path)
	if name == "" {
		return nil, ErrNotAPackage
	}

	// Replay with the name pinned so $pkgname in later values sees it.
	p.vars = shellvar.New()
	p.raw = make(map[string]string)
	p.seenName = false
	p.name = name
	p.replay(stmts)
	p.vars.Set(VarName, name)

	pkg := &Package{FilePath: path, Name: name}
	for _, st := range stmts {
		if st.Kind != CommentMetadata {
			continue
		}
		switch st.Name {
		case MetaMaintainer:
			if pkg.Maintainer == "" {
				pkg.Maintainer = st.Value
			}
		case MetaContributor:
			pkg.Contributors = append(pkg.Contributors, st.Value)
		}
	}

	pkg.Version = p.vars.Get(VarVersion)
	pkg.Release = parseRelease(p.raw[VarRelease], p.vars.Get(VarRelease), p.content)
	pkg.Description = p.vars.Get(VarDescription)
	pkg.URL = p.vars.Get(VarURL)
	pkg.License = p.vars.Get(VarLicense)
	pkg.Arch = strings.Join(strings.Fields(p.vars.Get(VarArch)), " ")

	pkg.Depends = p.list(VarDepends)
	pkg.MakeDepends = p.list(VarMakeDepends)
	pkg.MakeDependsBuild = p.list(VarMakeDependsBuild)
	pkg.MakeDependsHost = p.list(VarMakeDependsHost)
	pkg.CheckDepends = p.list(VarCheckDepends)
	pkg.Provides = p.list(VarProvides)
	pkg.Replaces = p.list(VarReplaces)
	pkg.Subpackages = cleanSubpackages(p.listSource(VarSubpackages), p.vars, name)

	pkg.Repo = DetectRepo(path)
	pkg.Normalize()
	return pkg, nil
}

// replay evaluates every top-level assignment in order.
func (p *parser) replay(stmts []Statement) {
	for _, st := range stmts {
		switch st.Kind {
		case Assignment, ConditionalAssignment:
			p.assign(st)
		case DefaultAssignment:
			p.vars.SetDefault(st.Name, p.vars.Expand(st.Value))
		}
	}
}

func (p *parser) assign(st Statement) {
	if st.Name == VarName {
		if p.seenName {
			return
		}
		p.seenName = true
		p.raw[VarName] = st.Value
		if p.name != "" {
			p.vars.Set(VarName, p.name)
			return
		}
		p.rawName, p.rawQuote = st.Value, st.Quote
	}
	p.raw[st.Name] = st.Value

	val := st.Value
	if st.Quote != '\'' {
		val = p.vars.Expand(val)
	}
	p.vars.Set(st.Name, val)
}

// resolveName settles the canonical name from the first raw pkgname value
// expanded against the complete context. A value that references a
// variable the recipe never sets, or that does not expand to a valid
// name, falls back to the recipe's directory name.
func (p *parser) resolveName(path string) string {
	v := strings.TrimSpace(p.rawName)
	if p.rawQuote != '\'' {
		if len(p.vars.Unset(v)) > 0 {
			v = ""
		} else {
			v = strings.TrimSpace(p.vars.Expand(v))
		}
	}
	if nameRE.MatchString(v) {
		return v
	}
	if path == "" {
		return ""
	}
	if dir := filepath.Base(filepath.Dir(path)); nameRE.MatchString(dir) {
		return dir
	}
	return ""
}

func (p *parser) list(name string) []string {
	return cleanList(p.listSource(name), p.vars, p.name)
}

// listSource returns the text of a list variable: the context value when
// set, otherwise whatever a raw scan of the content finds.
func (p *parser) listSource(name string) string {
	if v := p.vars.Get(name); strings.TrimSpace(v) != "" {
		return v
	}
	return scanQuoted(p.content, name)
}
