package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/matzehuels/depmap/pkg/depgraph"
)

// stdout receives all command output.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// repoColors tints package names by repository.
var repoColors = map[string]lipgloss.Color{
	"main":      colorCyan,
	"community": colorGreen,
	"testing":   colorYellow,
}

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(18)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printTitle(title string) {
	fmt.Fprintln(stdout, StyleTitle.Render(title))
}

// printKeyValue prints a labeled value.
func printKeyValue(key string, value any) {
	v := fmt.Sprint(value)
	switch value.(type) {
	case int, float64:
		v = StyleNumber.Render(v)
	default:
		v = StyleValue.Render(v)
	}
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+v)
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Package Output
// =============================================================================

// pkgName renders name in its repository colour.
func pkgName(g *depgraph.Graph, name string) string {
	rec, ok := g.Package(name)
	if !ok {
		return name
	}
	if c, ok := repoColors[rec.Repo]; ok {
		return lipgloss.NewStyle().Foreground(c).Render(name)
	}
	return name
}

// printPackages prints one package per line with its repository.
func printPackages(g *depgraph.Graph, names []string) {
	for _, n := range names {
		repo := ""
		if rec, ok := g.Package(n); ok {
			repo = rec.Repo
		}
		fmt.Fprintln(stdout, "  "+pkgName(g, n)+" "+StyleDim.Render(repo))
	}
}

// printChain prints a path as "a → b → c".
func printChain(g *depgraph.Graph, names []string) {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = pkgName(g, n)
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" "+iconArrow+" ")))
}

// renderTree converts a dependency tree for lipgloss/tree.
func renderTree(g *depgraph.Graph, n *depgraph.TreeNode) *tree.Tree {
	t := tree.Root(treeLabel(g, n)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(StyleDim)
	for _, child := range n.Children {
		if len(child.Children) == 0 {
			t.Child(treeLabel(g, child))
			continue
		}
		t.Child(renderTree(g, child))
	}
	return t
}

func treeLabel(g *depgraph.Graph, n *depgraph.TreeNode) string {
	label := pkgName(g, n.Name)
	if n.Truncated {
		label += StyleDim.Render(" …")
	}
	return label
}
