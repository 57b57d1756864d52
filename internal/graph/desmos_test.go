package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDesmos(t *testing.T) {
	cases := map[string]string{
		"":               "0",
		"   ":            "0",
		"2 + sin(theta)": `2 + \sin(\theta)`,
		"5*cos(x)":       `5\cos(\theta)`,
		"THETA^2":        `\theta^2`,
		"tan(t)*pi":      `\tan(\theta)\pi`,
		"exp(x)":         `exp(\theta)`,
		"5cos(θ)":        `5cos(\theta)`,
		"2*sin(θ) + θ":   `2\sin(\theta) + \theta`,
	}
	for in, want := range cases {
		assert.Equal(t, want, ToDesmos(in), "input %q", in)
	}
}

func TestToDesmosLeavesGluedNamesAlone(t *testing.T) {
	// No word boundary between a coefficient and the function name.
	assert.Equal(t, `5cos(\theta)`, ToDesmos("5cos(x)"))
}

func TestPolarRegionExpressions(t *testing.T) {
	exprs := PolarRegion("", "3").Expressions()
	require.Len(t, exprs, 1)
	assert.Equal(t, `r\le3\left\{0\le\theta\le2\pi\right\}`, exprs[0].Latex)

	exprs = PolarRegion("1", "2*cos(x)").Expressions()
	require.Len(t, exprs, 2)
	assert.Equal(t, "inner", exprs[1].ID)
	assert.Equal(t, `r\ge1\left\{0\le\theta\le2\pi\right\}`, exprs[1].Latex)
	assert.Len(t, PolarRegion("1", "2").Lines(), 3)

	lines := PolarRegion("", "2*sin(θ)").Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, `  outer: r\le2\sin(\theta)\left\{0\le\theta\le2\pi\right\}`, lines[1])
	assert.NotContains(t, lines[1], "θ")
}
