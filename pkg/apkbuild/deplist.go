package apkbuild

import (
	"regexp"
	"strings"

	"github.com/matzehuels/depmap/pkg/shellvar"
)

const pkgnameRef = "$" + VarName

var (
	parenRE = regexp.MustCompile(`\([^)]*\)`)
	tokenRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+._:-]*$`)
)

// cleanList turns the text of a dependency-style variable into tokens.
// Comments are dropped, the text is expanded, and each token is reduced
// to a bare package name. Tokens that still reference a variable are
// dropped unless they reference pkgname and name is known. Order and
// repeats are kept as declared.
func cleanList(text string, vars *shellvar.Context, name string) []string {
	out := []string{}
	for _, tok := range tokens(text, vars, name) {
		if dep, ok := CleanToken(tok); ok {
			out = append(out, dep)
		}
	}
	return out
}

// cleanSubpackages is cleanList for the subpackages variable. Entries
// naming the package itself are dropped and ":split_func" annotations are
// removed.
func cleanSubpackages(text string, vars *shellvar.Context, name string) []string {
	out := []string{}
	for _, tok := range tokens(text, vars, name) {
		if i := strings.IndexByte(tok, ':'); i >= 0 {
			tok = tok[:i]
		}
		if sub, ok := CleanToken(tok); ok && sub != name {
			out = append(out, sub)
		}
	}
	return out
}

func tokens(text string, vars *shellvar.Context, name string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if j := strings.IndexByte(line, '#'); j >= 0 {
			lines[i] = line[:j]
		}
	}
	expanded := vars.Expand(strings.Join(lines, " "))

	var out []string
	for _, tok := range strings.Fields(expanded) {
		if strings.Contains(tok, "$") {
			if name == "" || (tok != pkgnameRef && !strings.HasPrefix(tok, pkgnameRef+"-")) {
				continue
			}
			tok = name + tok[len(pkgnameRef):]
		}
		out = append(out, tok)
	}
	return out
}

// CleanToken reduces a declared dependency to its package name:
// "libfoo>=1.2" becomes "libfoo". Conflict markers ("!name"), tokens not
// starting with a letter or digit, and tokens left with characters outside
// the package name set (such as quotes or a stray parenthesis) are
// rejected.
func CleanToken(tok string) (string, bool) {
	if strings.HasPrefix(tok, "!") {
		return "", false
	}
	if i := strings.IndexAny(tok, "><=~"); i >= 0 {
		tok = tok[:i]
	}
	if i := strings.Index(tok, "::"); i >= 0 {
		tok = tok[:i]
	}
	tok = strings.TrimSpace(parenRE.ReplaceAllString(tok, ""))
	if !tokenRE.MatchString(tok) {
		return "", false
	}
	return tok, true
}

// scanQuoted finds the first top-level quoted assignment to name anywhere
// on a line (after "then", inside a case arm, and so on) and returns its
// contents, following the quotes across lines.
func scanQuoted(content, name string) string {
	re := regexp.MustCompile(`(?:^|[\s;()&|])` + regexp.QuoteMeta(name) + `=(["'])`)
	lines := splitLines(content)
	mask := functionMask(lines)

	for i, line := range lines {
		if mask[i] || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		loc := re.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		q := line[loc[2]]
		buf := line[loc[3]:]
		for j := i; ; {
			if end := closingQuote(buf, q); end >= 0 {
				return buf[:end]
			}
			if j+1 >= len(lines) {
				return buf
			}
			j++
			buf += "\n" + lines[j]
		}
	}
	return ""
}
