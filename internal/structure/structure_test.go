package structure

import (
	"errors"
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

func TestParsePDB_Predicted(t *testing.T) {
	s, err := Parse(loadTestFile(t, "predicted.pdb"), model.FormatPDB)
	require.NoError(t, err)

	require.Len(t, s.Atoms, 8)
	assert.Equal(t, model.FormatPDB, s.Format)
	assert.Equal(t, 1, s.Models())
	assert.Equal(t, []string{"A"}, s.Chains())

	first := s.Atoms[0]
	assert.Equal(t, int64(1), first.Serial)
	assert.Equal(t, "N", first.Name)
	assert.Equal(t, "PRO", first.Residue)
	assert.Equal(t, int64(1), first.ResidueNumber)
	assert.InDelta(t, 1.0, first.X, 1e-9)
	assert.InDelta(t, 2.0, first.Y, 1e-9)
	assert.InDelta(t, -3.0, first.Z, 1e-9)
	assert.InDelta(t, 1.0, first.Occupancy, 1e-9)
	assert.InDelta(t, 50.0, first.BFactor, 1e-9)
	assert.Equal(t, "N", first.Element)

	for _, a := range s.Atoms {
		assert.InDelta(t, 50.0, a.BFactor, 1e-9)
	}
}

func TestParsePDB_ModelsAndAltLocs(t *testing.T) {
	s, err := Parse(loadTestFile(t, "multimodel.pdb"), model.FormatPDB)
	require.NoError(t, err)

	// The B altloc of SER CB has lower occupancy and is dropped.
	require.Len(t, s.Atoms, 5)
	assert.Equal(t, 2, s.Models())
	assert.Equal(t, []string{"A", "B"}, s.Chains())

	var cb Atom
	for _, a := range s.Atoms {
		if a.Name == "CB" {
			cb = a
		}
	}
	assert.Equal(t, "A", cb.AltLoc)
	assert.InDelta(t, 40.0, cb.BFactor, 1e-9)

	assert.True(t, s.Atoms[3].HetAtom)
	assert.Equal(t, "HOH", s.Atoms[3].Residue)
	assert.Equal(t, 2, s.Atoms[4].Model)
}

func TestParsePDB_NoAtoms(t *testing.T) {
	for _, content := range []string{"", "not a structure\nat all\n", "HEADER    EMPTY\nEND\n"} {
		s, err := Parse(content, model.FormatPDB)
		require.NoError(t, err)
		assert.Empty(t, s.Atoms)
	}
}

func TestParsePDB_BadCoordinate(t *testing.T) {
	content := "ATOM      1  N   PRO A   1       abc     2.000  -3.000  1.00 50.00           N\n"
	_, err := Parse(content, model.FormatPDB)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "line 1")
	assert.Contains(t, err.Error(), "x coordinate")
}

func TestParsePDB_TruncatedRecordDefaultsBFactor(t *testing.T) {
	content := "ATOM      1  N   PRO A   1       1.000   2.000  -3.000\n"
	s, err := Parse(content, model.FormatPDB)
	require.NoError(t, err)
	require.Len(t, s.Atoms, 1)
	assert.InDelta(t, 0.0, s.Atoms[0].BFactor, 1e-9)
	assert.InDelta(t, 1.0, s.Atoms[0].Occupancy, 1e-9)
}

func TestParsePDB_CRLF(t *testing.T) {
	content := "ATOM      1  N   PRO A   1       1.000   2.000  -3.000  1.00 77.00           N\r\nEND\r\n"
	s, err := Parse(content, model.FormatPDB)
	require.NoError(t, err)
	require.Len(t, s.Atoms, 1)
	assert.InDelta(t, 77.0, s.Atoms[0].BFactor, 1e-9)
}

func TestParsePDB_NonFiniteValues(t *testing.T) {
	const base = "ATOM      1  N   PRO A   1       1.000   2.000  -3.000  1.00 50.00           N\n"
	tests := []struct {
		name string
		old  string
		new  string
		msg  string
	}{
		{"nan bfactor", "50.00", "  NaN", "B-factor"},
		{"inf bfactor", "50.00", "  Inf", "B-factor"},
		{"negative inf bfactor", "50.00", " -Inf", "B-factor"},
		{"nan occupancy", "  1.00 50.00", "   nan 50.00", "occupancy"},
		{"inf coordinate", "   1.000", "     inf", "x coordinate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(base, tt.old, tt.new, 1)
			require.NotEqual(t, base, content)

			_, err := Parse(content, model.FormatPDB)
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.True(t, errors.Is(err, errNonFinite))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseCIF_NonFiniteBFactor(t *testing.T) {
	for _, v := range []string{"nan", "inf", "-inf", "+Inf"} {
		t.Run(v, func(t *testing.T) {
			content := "data_x\nloop_\n_atom_site.id\n_atom_site.Cartn_x\n_atom_site.Cartn_y\n_atom_site.Cartn_z\n_atom_site.B_iso_or_equiv\n" +
				"1 1.0 2.0 3.0 0.5\n2 1.0 2.0 3.0 " + v + "\n"
			_, err := Parse(content, model.FormatCIF)
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.True(t, errors.Is(err, errNonFinite))
			assert.Contains(t, err.Error(), "B_iso_or_equiv")
		})
	}
}

func TestParseCIF_Fetched(t *testing.T) {
	s, err := Parse(loadTestFile(t, "fetched.cif"), model.FormatCIF)
	require.NoError(t, err)

	require.Len(t, s.Atoms, 4)
	assert.Equal(t, model.FormatCIF, s.Format)

	want := []float64{0.90, 0.70, 0.80, 0.80}
	for i, a := range s.Atoms {
		assert.InDelta(t, want[i], a.BFactor, 1e-9)
		assert.Equal(t, "MET", a.Residue)
		assert.Equal(t, "A", a.Chain)
		assert.Equal(t, int64(1), a.ResidueNumber)
		assert.Equal(t, 1, a.Model)
	}
	assert.Equal(t, "O'", s.Atoms[3].Name)
	assert.Equal(t, "", s.Atoms[0].AltLoc)
	assert.Equal(t, "", s.Atoms[0].InsertionCode)
	assert.InDelta(t, 4.0, s.Atoms[3].X, 1e-9)
}

func TestParseCIF_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"empty", "", "no data block"},
		{"garbage", "this is not a cif file\n", "no data block"},
		{"no atom site", "data_x\n_entry.id x\n", "no _atom_site loop"},
		{"missing column", "data_x\nloop_\n_atom_site.id\n_atom_site.Cartn_x\n1 2.0\n", "missing _atom_site.Cartn_y"},
		{"bad bfactor", loadTestFile(t, "badbfactor.cif"), "B_iso_or_equiv"},
		{"ragged", loadTestFile(t, "ragged.cif"), "do not fill rows"},
		{"unterminated quote", "data_x\nloop_\n_atom_site.id\n'abc\n", "unterminated quoted value"},
		{"unterminated text", "data_x\n_struct.title\n;open\n", "unterminated text field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content, model.FormatCIF)
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("anything", model.Format("xyz"))
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestTokenizeCIF(t *testing.T) {
	toks, err := tokenizeCIF(`ATOM 1 "O5'" 'it''s' x # trailing comment`)
	require.NoError(t, err)
	assert.Equal(t, []string{"ATOM", "1", "O5'", "it''s", "x"}, toks)
}
