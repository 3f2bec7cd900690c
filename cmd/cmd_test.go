package cmd

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocut/InputParameters"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/mesh"
)

func writeInput(t *testing.T, input string) string {
	fileName := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, os.WriteFile(fileName, []byte(input), 0o644))
	return fileName
}

func TestRunIntegrate(t *testing.T) {
	ip, cfg, err := processInput(writeInput(t, exampleFile))
	require.NoError(t, err)
	ip.Refinements = 3
	var buf bytes.Buffer
	require.NoError(t, RunIntegrate(&buf, ip, cfg))
	out := buf.String()
	assert.Contains(t, out, "Domain NEG")
	assert.Contains(t, out, "Domain IF")
	assert.Contains(t, out, "EOC")

	// The last EOC column of the NEG table is near two
	lines := strings.Split(out, "\n")
	fields := strings.Fields(lines[4])
	require.Len(t, fields, 5)
	order, err := strconv.ParseFloat(fields[4], 64)
	require.NoError(t, err)
	assert.Greater(t, order, 1.5)
}

func TestRunSpaceTime(t *testing.T) {
	ip := &InputParameters.CutParameters{}
	require.NoError(t, ip.Parse([]byte(`
Mesh: {Dim: 1, N: 4}
LevelSets:
  - Shape: Plane
    Gradient: [1]
    Offset: -0.5
    Velocity: [-0.5]
Domains: [NEG, IF]
Exact: [0.25, 1]
Refinements: 2
`)))
	cfg, err := ip.ToConfig()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, RunSpaceTime(&buf, ip, cfg))
	// x < 0.5 - 0.5t is integrated exactly on every level
	for _, line := range strings.Split(buf.String(), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 5 || fields[0] == "Level" {
			continue
		}
		e, err := strconv.ParseFloat(fields[3], 64)
		require.NoError(t, err)
		assert.Less(t, math.Abs(e), 1.e-13, line)
	}
}

func TestAdvanceSlab(t *testing.T) {
	m, err := mesh.NewStructured1D(4, nil)
	require.NoError(t, err)
	var (
		f    = func(x []float64, t float64) float64 { return x[0] - 0.5 + t*t }
		fs   = []levelset.SpaceTimeFunc{f}
		slab = levelset.TimeSlab{T0: 0, Dt: 0.5}
		prev = []levelset.SpaceTimeGridFunction{levelset.SpaceTimeInterpolateToP1(f, m, slab, 2)}
	)
	// A corrected end state carries over to the next slab
	for v := range prev[0].Values[2] {
		prev[0].Values[2][v] += 0.125
	}
	next := advanceSlab(fs, m, slab.Next(), 2, prev)
	require.Len(t, next, 1)
	assert.Equal(t, prev[0].Values[2], next[0].Values[0])
	for v, x := range m.Vertices {
		assert.InDelta(t, f(x, 0.75), next[0].Values[1][v], 1.e-15)
		assert.InDelta(t, f(x, 1), next[0].Values[2][v], 1.e-15)
	}
}

func TestRunClassify(t *testing.T) {
	ip, cfg, err := processInput(writeInput(t, exampleFile))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, RunClassify(&buf, ip, cfg, 0))
	assert.Contains(t, buf.String(), "Ghost penalty facets")
	assert.Contains(t, buf.String(), "IF")
}

func TestProcessInputErrors(t *testing.T) {
	_, _, err := processInput("")
	assert.Error(t, err)
	_, _, err = processInput(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, _, err = processInput(writeInput(t, "Domains: [NEG]"))
	assert.Error(t, err)
}
