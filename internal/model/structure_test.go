package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"pdb", FormatPDB, true},
		{"PDB", FormatPDB, true},
		{".cif", FormatCIF, true},
		{"mmCIF", FormatCIF, true},
		{" cif ", FormatCIF, true},
		{"xyz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFormat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromFileName(t *testing.T) {
	f, ok := FormatFromFileName("structure.cif")
	assert.True(t, ok)
	assert.Equal(t, FormatCIF, f)

	f, ok = FormatFromFileName("1ABC.PDB")
	assert.True(t, ok)
	assert.Equal(t, FormatPDB, f)

	_, ok = FormatFromFileName("notes.txt")
	assert.False(t, ok)

	_, ok = FormatFromFileName("README")
	assert.False(t, ok)

	// mmcif is accepted as a format tag but not as an upload suffix
	_, ok = FormatFromFileName("model.mmcif")
	assert.False(t, ok)
	f, ok = ParseFormat("mmcif")
	assert.True(t, ok)
	assert.Equal(t, FormatCIF, f)
}

func TestFormatMediaType(t *testing.T) {
	assert.Equal(t, "chemical/x-pdb", FormatPDB.MediaType())
	assert.Equal(t, "chemical/x-mmcif", FormatCIF.MediaType())
	assert.Equal(t, "text/plain", Format("xyz").MediaType())
}

func TestParseFlow(t *testing.T) {
	for _, f := range AllFlows() {
		got, ok := ParseFlow(string(f))
		assert.True(t, ok)
		assert.Equal(t, f, got)
	}
	_, ok := ParseFlow("predicted")
	assert.False(t, ok)
}
