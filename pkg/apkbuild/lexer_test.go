package apkbuild

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLexStatementKinds(t *testing.T) {
	src := `# Maintainer: Jane Doe <jane@example.org>
# just a comment
pkgname=foo

makedepends="a
	b"
[ "$CBUILD" != "$CHOST" ] && _cross=1 || _cross=0
: "${CTARGET:=x86_64}"
export CFLAGS="-O2"
echo hello
build() {
	pkgver=9
}
pkgrel=$(( _r + 1 )) # bump
`
	want := []Statement{
		{Kind: CommentMetadata, Line: 1, Name: MetaMaintainer, Value: "Jane Doe <jane@example.org>"},
		{Kind: Assignment, Line: 3, Name: "pkgname", Value: "foo"},
		{Kind: Assignment, Line: 5, Name: "makedepends", Value: "a\n\tb", Quote: '"'},
		{Kind: ConditionalAssignment, Line: 7, Name: "_cross", Value: "0"},
		{Kind: DefaultAssignment, Line: 8, Name: "CTARGET", Value: "x86_64"},
		{Kind: Assignment, Line: 9, Name: "CFLAGS", Value: "-O2", Quote: '"'},
		{Kind: Other, Line: 10, Value: "echo hello"},
		{Kind: Other, Line: 11, Value: "build() {", InFunction: true},
		{Kind: Other, Line: 12, Value: "pkgver=9", InFunction: true},
		{Kind: Other, Line: 13, Value: "}", InFunction: true},
		{Kind: Assignment, Line: 14, Name: "pkgrel", Value: "$(( _r + 1 ))"},
	}

	if diff := cmp.Diff(want, Lex(src)); diff != "" {
		t.Errorf("Lex() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadBare(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"value", "value"},
		{"value # comment", "value"},
		{"a;b", "a"},
		{"${x:-a b}c rest", "${x:-a b}c"},
		{"$(( 1 + 2 )) x", "$(( 1 + 2 ))"},
		{`pre"quoted part"post tail`, "prequoted partpost"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := readBare(tt.in); got != tt.want {
			t.Errorf("readBare(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLexUnterminatedQuote(t *testing.T) {
	stmts := Lex("depends=\"a b\nc")
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	if stmts[0].Value != "a b\nc" {
		t.Errorf("Value = %q", stmts[0].Value)
	}
}

func TestFunctionMaskOneLiner(t *testing.T) {
	lines := []string{"doc() { default_doc; }", "pkgname=foo"}
	mask := functionMask(lines)
	if !mask[0] || mask[1] {
		t.Errorf("functionMask = %v, want [true false]", mask)
	}
}
