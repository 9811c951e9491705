package apkbuild

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const zlibRecipe = `# Contributor: Sören Tempel <soeren+alpine@soeren-tempel.net>
# Contributor: Natanael Copa <ncopa@alpinelinux.org>
# Maintainer: Natanael Copa <ncopa@alpinelinux.org>
pkgname=zlib
pkgver=1.3.1
pkgrel=0
pkgdesc="A compression/decompression Library"
arch="all"
license="Zlib"
url="https://zlib.net/"
depends_dev="$pkgname"
makedepends="autoconf automake # generate configure
	libtool
	"
checkdepends="cmd:diff"
subpackages="$pkgname-static $pkgname-dev $pkgname-doc minizip minizip-dev:minizip_dev"
source="https://zlib.net/zlib-$pkgver.tar.gz"

build() {
	depends="should-not-leak"
	CFLAGS="$CFLAGS -O2" ./configure --prefix=/usr
	make
}

package() {
	make install DESTDIR="$pkgdir"
}
`

func TestParseRecipe(t *testing.T) {
	got, err := Parse(zlibRecipe, "aports/main/zlib/APKBUILD")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := &Package{
		Name:             "zlib",
		Version:          "1.3.1",
		Release:          0,
		Description:      "A compression/decompression Library",
		URL:              "https://zlib.net/",
		License:          "Zlib",
		Arch:             "all",
		Depends:          []string{},
		MakeDepends:      []string{"autoconf", "automake", "libtool"},
		MakeDependsBuild: []string{},
		MakeDependsHost:  []string{},
		CheckDepends:     []string{"cmd:diff"},
		Provides:         []string{},
		Replaces:         []string{},
		Subpackages:      []string{"zlib-static", "zlib-dev", "zlib-doc", "minizip", "minizip-dev"},
		Maintainer:       "Natanael Copa <ncopa@alpinelinux.org>",
		Contributors: []string{
			"Sören Tempel <soeren+alpine@soeren-tempel.net>",
			"Natanael Copa <ncopa@alpinelinux.org>",
		},
		Repo:     "main",
		FilePath: "aports/main/zlib/APKBUILD",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDependsConstraints(t *testing.T) {
	src := "pkgname=app\npkgver=1\ndepends=\"libfoo>=1.0 libbar<2.0 !conflicting\"\n"
	pkg, err := Parse(src, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"libfoo", "libbar"}, pkg.Depends); diff != "" {
		t.Errorf("Depends mismatch (-want +got):\n%s", diff)
	}
}

func TestParseArithmeticRelease(t *testing.T) {
	src := "pkgname=foo\n_rel=3\npkgver=2.0\npkgrel=$(( _rel + 1 ))\n"
	pkg, err := Parse(src, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg.Release != 4 {
		t.Errorf("Release = %d, want 4", pkg.Release)
	}
}

func TestParseArithmeticReleaseCommentedHelper(t *testing.T) {
	src := "pkgname=a\n_rel=3 # bump\npkgrel=$(( _rel + 1 ))\n"
	pkg, err := Parse(src, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg.Release != 4 {
		t.Errorf("Release = %d, want 4", pkg.Release)
	}
}

func TestParseNotAPackage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
	}{
		{"empty", "", ""},
		{"no pkgname", "pkgver=1.0\npkgrel=0\n", "main/foo/APKBUILD"},
		{"unresolvable without path", "pkgname=$(echo foo)\n", ""},
		{"pkgname only in function", "build() {\n\tpkgname=foo\n}\n", ""},
		{"unset helper without path", "pkgname=foo-$_undefined\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content, tt.path)
			if !errors.Is(err, ErrNotAPackage) {
				t.Errorf("Parse() error = %v, want ErrNotAPackage", err)
			}
		})
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{"plain", "pkgname=foo\n", "", "foo"},
		{"quoted", "pkgname=\"foo-bar\"\n", "", "foo-bar"},
		{"first wins", "pkgname=first\npkgname=second\n", "", "first"},
		{"expanded", "_name=py3\npkgname=$_name-foo\n", "", "py3-foo"},
		{"late helper", "pkgname=${_pyname}\n_pyname=requests\n", "", "requests"},
		{"directory fallback", "pkgname=$(echo x)\n", "community/myproj/APKBUILD", "myproj"},
		{"plus in name", "pkgname=gtk+3.0\n", "", "gtk+3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := Parse(tt.content, tt.path)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if pkg.Name != tt.want {
				t.Errorf("Name = %q, want %q", pkg.Name, tt.want)
			}
		})
	}
}

func TestParseNameFlowsIntoLists(t *testing.T) {
	const path = "aports/community/myproj/APKBUILD"
	tests := []struct {
		name        string
		content     string
		wantName    string
		subpackages []string
		depends     []string
	}{
		{
			name:        "helper assigned after pkgname",
			content:     "pkgname=py3-$_pyname\n_pyname=foo\nsubpackages=\"$pkgname-doc\"\n",
			wantName:    "py3-foo",
			subpackages: []string{"py3-foo-doc"},
			depends:     []string{},
		},
		{
			name:        "helper never assigned",
			content:     "pkgname=foo-$_undefined\nsubpackages=\"$pkgname-doc\"\n",
			wantName:    "myproj",
			subpackages: []string{"myproj-doc"},
			depends:     []string{},
		},
		{
			name:        "command substitution",
			content:     "pkgname=$(echo x)\nsubpackages=\"$pkgname-doc\"\ndepends=\"$pkgname-libs\"\n",
			wantName:    "myproj",
			subpackages: []string{"myproj-doc"},
			depends:     []string{"myproj-libs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := Parse(tt.content, path)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if pkg.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", pkg.Name, tt.wantName)
			}
			if diff := cmp.Diff(tt.subpackages, pkg.Subpackages); diff != "" {
				t.Errorf("Subpackages mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.depends, pkg.Depends); diff != "" {
				t.Errorf("Depends mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseKeepsRepeatedDeps(t *testing.T) {
	pkg, err := Parse("pkgname=app\ndepends=\"libfoo libbar libfoo>=2\"\n", "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"libfoo", "libbar", "libfoo"}, pkg.Depends); diff != "" {
		t.Errorf("Depends mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConditionalAssignment(t *testing.T) {
	src := `pkgname=gcc
[ "$CBUILD" != "$CHOST" ] && _cross="-cross" || _cross=""
[ "$CHOST" != "$CTARGET" ] && _target="$CTARGET" || _target="native"
depends="binutils$_cross libc-$_target"
`
	pkg, err := Parse(src, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"binutils", "libc-native"}, pkg.Depends); diff != "" {
		t.Errorf("Depends mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDefaultAssignment(t *testing.T) {
	src := `pkgname=llvm
: "${_llvmver:=17}"
: ${_pyver:=3}
makedepends="clang$_llvmver python$_pyver"
`
	pkg, err := Parse(src, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"clang17", "python3"}, pkg.MakeDepends); diff != "" {
		t.Errorf("MakeDepends mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDependencyLists(t *testing.T) {
	src := `pkgname=mesa
pkgver=24.0.1
depends_dev="libdrm-dev libxext-dev"
makedepends="$depends_dev
	meson
	py3-mako # templates
	$_llvm_missing
	"
makedepends_build="bison flex"
makedepends_host="libxml2-dev"
provides="mesa-egl=$pkgver-r0 so:libEGL.so.1=1"
replaces="mesa-dri-classic"
subpackages="$pkgname-dev $pkgname $pkgname-gbm:gbm"
`
	pkg, err := Parse(src, "aports/main/mesa/APKBUILD")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		field string
		got   []string
		want  []string
	}{
		{"makedepends", pkg.MakeDepends, []string{"libdrm-dev", "libxext-dev", "meson", "py3-mako"}},
		{"makedepends_build", pkg.MakeDependsBuild, []string{"bison", "flex"}},
		{"makedepends_host", pkg.MakeDependsHost, []string{"libxml2-dev"}},
		{"provides", pkg.Provides, []string{"mesa-egl", "so:libEGL.so.1"}},
		{"replaces", pkg.Replaces, []string{"mesa-dri-classic"}},
		{"subpackages", pkg.Subpackages, []string{"mesa-dev", "mesa-gbm"}},
		{"build deps", pkg.BuildDeps(), []string{"libdrm-dev", "libxext-dev", "meson", "py3-mako", "bison", "flex", "libxml2-dev"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.field, diff)
			}
		})
	}
}

func TestParseEmbeddedAssignmentFallback(t *testing.T) {
	src := `pkgname=ghc-tool
case "$CARCH" in
	x86_64) depends="ghc gmp";;
esac
`
	pkg, err := Parse(src, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff([]string{"ghc", "gmp"}, pkg.Depends); diff != "" {
		t.Errorf("Depends mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSingleQuotedLiteral(t *testing.T) {
	src := "pkgname=foo\npkgdesc='costs $5 today'\n"
	pkg, err := Parse(src, "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg.Description != "costs $5 today" {
		t.Errorf("Description = %q", pkg.Description)
	}
}

func TestParseArchDefault(t *testing.T) {
	pkg, err := Parse("pkgname=foo\n", "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg.Arch != DefaultArch {
		t.Errorf("Arch = %q, want %q", pkg.Arch, DefaultArch)
	}
	if pkg.Depends == nil || pkg.Contributors == nil {
		t.Error("list fields must not be nil")
	}
}

func TestParseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "community", "hello")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "APKBUILD")
	if err := os.WriteFile(path, []byte("pkgname=hello\npkgver=2.12\npkgrel=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pkg, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if pkg.Repo != "community" {
		t.Errorf("Repo = %q, want community", pkg.Repo)
	}
	if pkg.FullVersion() != "2.12-r1" {
		t.Errorf("FullVersion() = %q, want 2.12-r1", pkg.FullVersion())
	}

	if _, err := ParseFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("ParseFile(missing) should fail")
	}
}

func TestDetectRepo(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"aports/main/zlib/APKBUILD", "main"},
		{"/src/main/aports/testing/foo/APKBUILD", "testing"},
		{"unmaintained/old/APKBUILD", "unmaintained"},
		{"elsewhere/foo/APKBUILD", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DetectRepo(tt.path); got != tt.want {
			t.Errorf("DetectRepo(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
