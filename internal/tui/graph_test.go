package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSpeedGraph_FillsFromRight(t *testing.T) {
	out := renderSpeedGraph([]float64{10}, 4, 2, 10, ColorAccent)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "█"))
	assert.True(t, strings.HasSuffix(lines[1], "█"))
	assert.True(t, strings.HasPrefix(lines[0], "╌"))
}

func TestRenderSpeedGraph_Degenerate(t *testing.T) {
	assert.Equal(t, "", renderSpeedGraph(nil, 0, 3, 1, ColorAccent))
	assert.Equal(t, "", renderSpeedGraph(nil, 3, 0, 1, ColorAccent))
}

func TestGraphScale(t *testing.T) {
	assert.Equal(t, 2.0, graphScale(nil))
	assert.Equal(t, 4.0, graphScale([]float64{3}))
	assert.Equal(t, 25.0, graphScale([]float64{20}))
}
