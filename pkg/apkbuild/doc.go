// Package apkbuild extracts package metadata from Alpine APKBUILD recipes.
//
// # Overview
//
// An APKBUILD is a shell script. Rather than interpreting it, [Lex] splits
// the text into a small set of statement kinds ([Assignment],
// [ConditionalAssignment], [DefaultAssignment], [CommentMetadata] and
// [Other]) and [Parse] replays the assignments into a
// [shellvar.Context] before deriving a [Package].
//
//	pkg, err := apkbuild.ParseFile("aports/main/zlib/APKBUILD")
//	if errors.Is(err, apkbuild.ErrNotAPackage) {
//	    // skip
//	}
//
// # Assignment Rules
//
// Quoted values may span lines. Double-quoted and bare values are expanded
// when assigned, single-quoted values are stored literally. The first
// pkgname assignment wins; if it cannot be expanded to a plain name the
// recipe's directory name is used instead.
//
// The idiom
//
//	[ "$CBUILD" != "$CHOST" ] && _cross=1 || _cross=0
//
// is never evaluated: the else branch is taken, which matches a native
// build. Lines of the form ': "${var:=value}"' set defaults.
//
// Function bodies are ignored, so split functions that override depends
// for a subpackage do not leak into the main package.
//
// # Dependency Lists
//
// depends, makedepends, makedepends_build, makedepends_host, checkdepends,
// provides and replaces are cleaned token by token with [CleanToken]:
// version constraints and "::" suffixes are cut, parenthesised segments
// are removed, and "!conflict" markers are dropped. Tokens that still
// reference an unknown variable are discarded.
//
// # Release
//
// pkgrel is usually an integer. "$(( _base + 1 ))" is evaluated using the
// "_name=<int>" helper assignments found in the file. An unparsable release
// is 0.
package apkbuild
