package apkbuild

import (
	"regexp"
	"strings"
)

// StatementKind classifies one logical statement of a recipe.
type StatementKind int

const (
	// Other is any non-blank line the parser does not interpret.
	Other StatementKind = iota
	// Assignment is "name=value", value optionally quoted and possibly
	// spanning several lines.
	Assignment
	// ConditionalAssignment is "[ test ] && a=x || b=y"; the statement
	// carries the else branch.
	ConditionalAssignment
	// DefaultAssignment is ': "${name:=value}"'.
	DefaultAssignment
	// CommentMetadata is a "# Maintainer:" or "# Contributor:" line.
	CommentMetadata
)

func (k StatementKind) String() string {
	switch k {
	case Assignment:
		return "assignment"
	case ConditionalAssignment:
		return "conditional"
	case DefaultAssignment:
		return "default"
	case CommentMetadata:
		return "comment-metadata"
	default:
		return "other"
	}
}

// Metadata keys carried by CommentMetadata statements.
const (
	MetaMaintainer  = "maintainer"
	MetaContributor = "contributor"
)

// Statement is one lexed recipe statement.
type Statement struct {
	Kind StatementKind
	Line int // 1-based line the statement starts on

	// Name is the assigned variable, or the metadata key.
	Name string
	// Value has one layer of surrounding quotes removed.
	Value string
	// Quote is the quote character that enclosed Value, or 0.
	Quote byte
	// InFunction is set for lines inside a shell function body.
	InFunction bool
}

var (
	assignLineRE = regexp.MustCompile(`^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)
	condLineRE   = regexp.MustCompile(`^\s*\[\[?\s.*\]\]?\s*&&\s*.*\|\|\s*([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)
	defaultRE    = regexp.MustCompile(`^\s*:\s+"?\$\{([A-Za-z_][A-Za-z0-9_]*):=([^}]*)\}"?\s*;?\s*$`)
	metaRE       = regexp.MustCompile(`^#\s*(Maintainer|Contributor):\s*(.*?)\s*$`)
	funcStartRE  = regexp.MustCompile(`^\s*[A-Za-z_][A-Za-z0-9_-]*\s*\(\)\s*(\{.*)?$`)
)

// Lex splits recipe content into statements. Blank lines and ordinary
// comments produce nothing.
func Lex(content string) []Statement {
	lines := splitLines(content)
	mask := functionMask(lines)

	var out []Statement
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			if m := metaRE.FindStringSubmatch(trimmed); m != nil {
				out = append(out, Statement{
					Kind:  CommentMetadata,
					Line:  i + 1,
					Name:  strings.ToLower(m[1]),
					Value: m[2],
				})
			}
			continue
		}
		if mask[i] {
			out = append(out, Statement{Kind: Other, Line: i + 1, Value: trimmed, InFunction: true})
			continue
		}

		if m := condLineRE.FindStringSubmatch(line); m != nil {
			val, q, next := readValue(m[2], lines, i)
			out = append(out, Statement{Kind: ConditionalAssignment, Line: i + 1, Name: m[1], Value: val, Quote: q})
			i = next
			continue
		}
		if m := defaultRE.FindStringSubmatch(line); m != nil {
			out = append(out, Statement{Kind: DefaultAssignment, Line: i + 1, Name: m[1], Value: m[2]})
			continue
		}
		if m := assignLineRE.FindStringSubmatch(line); m != nil {
			val, q, next := readValue(m[2], lines, i)
			out = append(out, Statement{Kind: Assignment, Line: i + 1, Name: m[1], Value: val, Quote: q})
			i = next
			continue
		}
		out = append(out, Statement{Kind: Other, Line: i + 1, Value: trimmed})
	}
	return out
}

func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

// functionMask marks the lines belonging to shell function definitions,
// header and closing brace included. Bodies are assumed to close with a
// "}" in column 0.
func functionMask(lines []string) []bool {
	mask := make([]bool, len(lines))
	in := false
	for i, line := range lines {
		if in {
			mask[i] = true
			if strings.HasPrefix(line, "}") {
				in = false
			}
			continue
		}
		m := funcStartRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		mask[i] = true
		body := strings.TrimSpace(m[1])
		if body != "" && strings.HasSuffix(body, "}") && len(body) > 1 {
			continue // one-line function
		}
		in = true
	}
	return mask
}

// readValue reads an assignment value starting at rest (the text after
// '='). Quoted values may continue over the following lines; the index of
// the last consumed line is returned.
func readValue(rest string, lines []string, i int) (string, byte, int) {
	if rest == "" {
		return "", 0, i
	}
	if q := rest[0]; q == '"' || q == '\'' {
		buf := rest[1:]
		j := i
		for {
			if end := closingQuote(buf, q); end >= 0 {
				return unescape(buf[:end], q), q, j
			}
			if j+1 >= len(lines) {
				return unescape(buf, q), q, j
			}
			j++
			buf += "\n" + lines[j]
		}
	}
	return readBare(rest), 0, i
}

// closingQuote returns the index of the quote closing s, honouring
// backslash escapes inside double quotes.
func closingQuote(s string, q byte) int {
	for k := 0; k < len(s); k++ {
		switch {
		case q == '"' && s[k] == '\\':
			k++
		case s[k] == q:
			return k
		}
	}
	return -1
}

func unescape(s string, q byte) string {
	if q != '"' {
		return s
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}

// readBare reads an unquoted value up to the first unnested blank or
// command separator. $(...), $((...)) and ${...} are kept whole, and
// embedded quoted segments lose their quotes.
func readBare(s string) string {
	var b strings.Builder
	depth := 0
	for k := 0; k < len(s); k++ {
		ch := s[k]
		switch {
		case ch == '$' && k+1 < len(s) && (s[k+1] == '(' || s[k+1] == '{'):
			depth++
			b.WriteByte(ch)
			b.WriteByte(s[k+1])
			k++
			continue
		case depth > 0 && (ch == '(' || ch == '{'):
			depth++
		case depth > 0 && (ch == ')' || ch == '}'):
			depth--
		case depth == 0 && (ch == '"' || ch == '\''):
			if end := closingQuote(s[k+1:], ch); end >= 0 {
				b.WriteString(unescape(s[k+1:k+1+end], ch))
				k += end + 1
				continue
			}
		case depth == 0 && strings.IndexByte(" \t;&|", ch) >= 0:
			return b.String()
		}
		b.WriteByte(ch)
	}
	return b.String()
}
