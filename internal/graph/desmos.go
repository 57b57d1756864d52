// Package graph describes the polar region of a solved problem in Desmos
// syntax so it can be shown next to the solution or pasted into a calculator.
package graph

import (
	"regexp"
	"strings"
)

var desmosRewrites = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`\bsin\b`), `\sin`},
	{regexp.MustCompile(`\bcos\b`), `\cos`},
	{regexp.MustCompile(`\btan\b`), `\tan`},
	{regexp.MustCompile(`\bpi\b`), `\pi`},
	{regexp.MustCompile(`(?i)\btheta\b`), `\theta`},
	{regexp.MustCompile(`θ`), `\theta`},
	{regexp.MustCompile(`\b[tx]\b`), `\theta`},
	{regexp.MustCompile(`\*`), ``},
}

// ToDesmos rewrites a plain expression into Desmos latex: trig names and pi
// are escaped, the input variable becomes \theta and multiplication signs are
// dropped. A blank expression becomes "0".
func ToDesmos(expr string) string {
	if strings.TrimSpace(expr) == "" {
		return "0"
	}
	out := expr
	for _, rw := range desmosRewrites {
		out = rw.pattern.ReplaceAllLiteralString(out, rw.repl)
	}
	return out
}

type Expression struct {
	ID    string
	Latex string
	Color string
}

type Bounds struct {
	Left, Right, Bottom, Top float64
}

// Region is the area between two polar curves over one full turn.
type Region struct {
	Inner  string
	Outer  string
	Bounds Bounds
}

const fullTurn = `\left\{0\le\theta\le2\pi\right\}`

func PolarRegion(inner, outer string) Region {
	return Region{
		Inner:  strings.TrimSpace(inner),
		Outer:  strings.TrimSpace(outer),
		Bounds: Bounds{Left: -10, Right: 10, Bottom: -10, Top: 10},
	}
}

// Expressions lists the outer bound first; the inner bound only appears when
// an inner curve was given.
func (r Region) Expressions() []Expression {
	out := []Expression{{ID: "outer", Latex: `r\le` + ToDesmos(r.Outer) + fullTurn, Color: "blue"}}
	if r.Inner != "" {
		out = append(out, Expression{ID: "inner", Latex: `r\ge` + ToDesmos(r.Inner) + fullTurn, Color: "red"})
	}
	return out
}

func (r Region) Lines() []string {
	lines := []string{"Graph (Desmos, -10..10):"}
	for _, e := range r.Expressions() {
		lines = append(lines, "  "+e.ID+": "+e.Latex)
	}
	return lines
}
