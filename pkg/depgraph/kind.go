package depgraph

import (
	"strings"

	"github.com/matzehuels/depmap/pkg/errors"
)

// Kind is a dependency edge type. Kinds are bit flags so a query may ask
// for several at once.
type Kind uint8

const (
	Runtime Kind = 1 << iota
	Build
	Check

	// All matches every edge kind.
	All = Runtime | Build | Check
)

// Kinds lists the edge kinds in their canonical order.
var Kinds = []Kind{Runtime, Build, Check}

func (k Kind) String() string {
	switch k {
	case Runtime:
		return "runtime"
	case Build:
		return "build"
	case Check:
		return "check"
	case All:
		return "all"
	}
	var parts []string
	for _, kk := range Kinds {
		if k&kk != 0 {
			parts = append(parts, kk.String())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Has reports whether k includes other.
func (k Kind) Has(other Kind) bool { return k&other != 0 }

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. It accepts every
// form [Kind.String] produces, including "runtime+build".
func (k *Kind) UnmarshalText(text []byte) error {
	var out Kind
	for _, part := range strings.Split(string(text), "+") {
		kk, err := ParseKind(part)
		if err != nil {
			return err
		}
		out |= kk
	}
	*k = out
	return nil
}

// ParseKind parses "runtime", "build", "check" or "all". The empty string
// means all.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "runtime", "depends":
		return Runtime, nil
	case "build", "makedepends":
		return Build, nil
	case "check", "checkdepends":
		return Check, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidKind, "unknown dependency type %q (want runtime, build, check or all)", s)
}
