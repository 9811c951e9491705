package apkbuild

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	arithRE   = regexp.MustCompile(`^\$\(\((.*)\)\)$`)
	intVarRE  = regexp.MustCompile(`(?m)^\s*(_[A-Za-z0-9_]*)=["']?(\d+)["']?(?:[\s;#]|$)`)
	helperRE  = regexp.MustCompile(`\b_[A-Za-z0-9_]*`)
	unsafeRE  = regexp.MustCompile(`[^0-9\s+\-*/]`)
	errSyntax = errors.New("arithmetic syntax error")
)

// parseRelease computes pkgrel. A bare integer is used as is. A
// "$(( expr ))" value is evaluated after substituting the file's
// "_name=<int>" helper variables (0 when undefined). Anything else,
// including a negative result, yields 0.
func parseRelease(raw, expanded, content string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(expanded)); err == nil {
		return max(n, 0)
	}
	m := arithRE.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0
	}

	helpers := make(map[string]string)
	for _, g := range intVarRE.FindAllStringSubmatch(content, -1) {
		helpers[g[1]] = g[2]
	}
	expr := helperRE.ReplaceAllStringFunc(m[1], func(name string) string {
		if v, ok := helpers[name]; ok {
			return v
		}
		return "0"
	})
	expr = unsafeRE.ReplaceAllString(expr, "")

	n, err := evalArith(expr)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// evalArith evaluates integer + - * / with the usual precedence and
// unary signs. Division truncates toward zero as in the shell.
func evalArith(expr string) (int, error) {
	toks, err := lexArith(expr)
	if err != nil {
		return 0, err
	}
	e := &arithEval{toks: toks}
	v, err := e.sum()
	if err != nil {
		return 0, err
	}
	if e.pos != len(e.toks) {
		return 0, errSyntax
	}
	return v, nil
}

type arithTok struct {
	op  byte // 0 for numbers
	num int
}

func lexArith(s string) ([]arithTok, error) {
	var toks []arithTok
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(s[i:j])
			if err != nil {
				return nil, err
			}
			toks = append(toks, arithTok{num: n})
			i = j
		case strings.IndexByte("+-*/", c) >= 0:
			toks = append(toks, arithTok{op: c})
			i++
		default:
			return nil, errSyntax
		}
	}
	if len(toks) == 0 {
		return nil, errSyntax
	}
	return toks, nil
}

type arithEval struct {
	toks []arithTok
	pos  int
}

func (e *arithEval) peek() (arithTok, bool) {
	if e.pos >= len(e.toks) {
		return arithTok{}, false
	}
	return e.toks[e.pos], true
}

func (e *arithEval) sum() (int, error) {
	v, err := e.product()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := e.peek()
		if !ok || (t.op != '+' && t.op != '-') {
			return v, nil
		}
		e.pos++
		r, err := e.product()
		if err != nil {
			return 0, err
		}
		if t.op == '+' {
			v += r
		} else {
			v -= r
		}
	}
}

func (e *arithEval) product() (int, error) {
	v, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := e.peek()
		if !ok || (t.op != '*' && t.op != '/') {
			return v, nil
		}
		e.pos++
		r, err := e.unary()
		if err != nil {
			return 0, err
		}
		if t.op == '*' {
			v *= r
			continue
		}
		if r == 0 {
			return 0, errors.New("division by zero")
		}
		v /= r
	}
}

func (e *arithEval) unary() (int, error) {
	t, ok := e.peek()
	if !ok {
		return 0, errSyntax
	}
	e.pos++
	switch t.op {
	case 0:
		return t.num, nil
	case '-':
		v, err := e.unary()
		return -v, err
	case '+':
		return e.unary()
	}
	return 0, errSyntax
}
