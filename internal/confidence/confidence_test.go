package confidence

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/proviewer/internal/model"
)

func loadTestFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

// pdbWithBFactors builds a minimal single-chain PDB with one CA atom per value.
func pdbWithBFactors(values ...float64) string {
	var b strings.Builder
	for i, v := range values {
		fmt.Fprintf(&b, "ATOM  %5d  CA  ALA A%4d    %8.3f%8.3f%8.3f%6.2f%6.2f           C\n",
			i+1, i+1, float64(i), 0.0, 0.0, 1.0, v)
	}
	b.WriteString("END\n")
	return b.String()
}

// cifWithBFactors builds a minimal _atom_site loop with one atom per value.
func cifWithBFactors(values ...string) string {
	var b strings.Builder
	b.WriteString("data_test\nloop_\n_atom_site.id\n_atom_site.Cartn_x\n_atom_site.Cartn_y\n_atom_site.Cartn_z\n_atom_site.B_iso_or_equiv\n")
	for i, v := range values {
		fmt.Fprintf(&b, "%d %d.0 0.0 0.0 %s\n", i+1, i, v)
	}
	return b.String()
}

func TestScore_PredictedPDB(t *testing.T) {
	score, ok := Score(loadTestFile(t, "predicted.pdb"), model.FormatPDB)
	require.True(t, ok)
	assert.InDelta(t, 50.0, score, 1e-9)
	assert.Equal(t, "50.00", Format(score, ok))
}

func TestScore_FractionalCIF(t *testing.T) {
	score, ok := Score(loadTestFile(t, "fetched.cif"), model.FormatCIF)
	require.True(t, ok)
	assert.InDelta(t, 80.0, score, 1e-9)
	assert.Equal(t, "80.00", Format(score, ok))
}

func TestScore_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  model.Format
	}{
		{"empty pdb", "", model.FormatPDB},
		{"empty cif", "", model.FormatCIF},
		{"no atoms pdb", "HEADER    NOTHING\nEND\n", model.FormatPDB},
		{"garbage cif", "}{ not a structure", model.FormatCIF},
		{"bad coordinate pdb", "ATOM      1  CA  ALA A   1       x.xxx   0.000   0.000  1.00 50.00           C\n", model.FormatPDB},
		{"unknown format", pdbWithBFactors(50), model.Format("xyz")},
		{"nan bfactor pdb", pdbWithBFactors(50, math.NaN()), model.FormatPDB},
		{"inf bfactor pdb", pdbWithBFactors(math.Inf(1), math.Inf(-1)), model.FormatPDB},
		{"inf bfactor cif", cifWithBFactors("inf", "-inf"), model.FormatCIF},
		{"nan bfactor cif", cifWithBFactors("0.5", "NaN"), model.FormatCIF},
		{"overflowing mean cif", cifWithBFactors("1e308", "1e308"), model.FormatCIF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := Score(tt.content, tt.format)
			assert.False(t, ok)
			assert.Zero(t, score)
			assert.Equal(t, "", Format(score, ok))
		})
	}
}

func TestScore_AllZeroIsAvailable(t *testing.T) {
	score, ok := Score(pdbWithBFactors(0, 0, 0), model.FormatPDB)
	require.True(t, ok)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, "0.00", Format(score, ok))
}

func TestScore_ScaleHeuristic(t *testing.T) {
	// Exactly 1.0 is treated as a fraction.
	score, ok := Score(pdbWithBFactors(1.0, 1.0), model.FormatPDB)
	require.True(t, ok)
	assert.InDelta(t, 100.0, score, 1e-9)

	// A genuine percentage mean of 0.9 is indistinguishable from a fraction.
	score, ok = Score(pdbWithBFactors(0.5, 1.3), model.FormatPDB)
	require.True(t, ok)
	assert.InDelta(t, 90.0, score, 1e-9)

	// Just above 1.0 stays on the percentage scale.
	score, ok = Score(pdbWithBFactors(1.01), model.FormatPDB)
	require.True(t, ok)
	assert.InDelta(t, 1.01, score, 1e-9)
}

func TestScore_ClampedToRange(t *testing.T) {
	score, ok := Score(pdbWithBFactors(150, 250), model.FormatPDB)
	require.True(t, ok)
	assert.Equal(t, 100.0, score)

	score, ok = Score(pdbWithBFactors(-5, -5), model.FormatPDB)
	require.True(t, ok)
	assert.Equal(t, 0.0, score)
}

func TestScore_Deterministic(t *testing.T) {
	content := pdbWithBFactors(12.5, 88.25, 63.0, 91.75)
	a, okA := Score(content, model.FormatPDB)
	b, okB := Score(content, model.FormatPDB)
	assert.Equal(t, okA, okB)
	assert.Equal(t, a, b)
}

func TestSummarize_Bands(t *testing.T) {
	s, ok := Summarize(pdbWithBFactors(95, 90, 75, 55, 30), model.FormatPDB)
	require.True(t, ok)

	assert.Equal(t, 5, s.Atoms)
	assert.False(t, s.Fractional)
	assert.InDelta(t, 69.0, s.Mean, 1e-9)
	assert.Equal(t, 2, s.Bands[BandVeryHigh])
	assert.Equal(t, 1, s.Bands[BandConfident])
	assert.Equal(t, 1, s.Bands[BandLow])
	assert.Equal(t, 1, s.Bands[BandVeryLow])
}

func TestSummarize_FractionalBands(t *testing.T) {
	s, ok := Summarize(loadTestFile(t, "fetched.cif"), model.FormatCIF)
	require.True(t, ok)

	assert.True(t, s.Fractional)
	assert.Equal(t, 4, s.Atoms)
	assert.Equal(t, 1, s.Bands[BandVeryHigh])
	assert.Equal(t, 3, s.Bands[BandConfident])
	assert.Equal(t, 0, s.Bands[BandLow])
	assert.Equal(t, 0, s.Bands[BandVeryLow])
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandVeryHigh, BandFor(90))
	assert.Equal(t, BandConfident, BandFor(89.99))
	assert.Equal(t, BandConfident, BandFor(70))
	assert.Equal(t, BandLow, BandFor(50))
	assert.Equal(t, BandVeryLow, BandFor(49.99))
}
