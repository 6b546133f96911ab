// Package structure reads atom records out of PDB and mmCIF text.
package structure

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proviewer/internal/model"
)

// Atom is a single ATOM or HETATM record.
type Atom struct {
	Model         int
	Serial        int64
	Name          string
	AltLoc        string
	Residue       string
	Chain         string
	ResidueNumber int64
	InsertionCode string
	X             float64
	Y             float64
	Z             float64
	Occupancy     float64
	BFactor       float64
	Element       string
	HetAtom       bool
}

// Structure is the parsed atom list of one structure file.
type Structure struct {
	Format model.Format
	Atoms  []Atom
}

// Models returns the number of distinct models.
func (s *Structure) Models() int {
	seen := make(map[int]struct{})
	for _, a := range s.Atoms {
		seen[a.Model] = struct{}{}
	}
	return len(seen)
}

// Chains returns chain identifiers in first-seen order.
func (s *Structure) Chains() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, a := range s.Atoms {
		if _, ok := seen[a.Chain]; ok {
			continue
		}
		seen[a.Chain] = struct{}{}
		out = append(out, a.Chain)
	}
	return out
}

// ParseError reports structure text that could not be read.
type ParseError struct {
	Format model.Format
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// errNonFinite marks a numeric column holding NaN or an infinity.
var errNonFinite = errors.New("non-finite value")

// parseFloat is strconv.ParseFloat restricted to finite values.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Wrapf(errNonFinite, "%q", s)
	}
	return v, nil
}

// Parse reads the atom list from content in the given format.
func Parse(content string, format model.Format) (*Structure, error) {
	var (
		atoms []Atom
		err   error
	)
	switch format {
	case model.FormatPDB:
		atoms, err = parsePDB(content)
	case model.FormatCIF:
		atoms, err = parseCIF(content)
	default:
		return nil, &ParseError{Format: format, Err: eris.Errorf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, err
	}
	return &Structure{Format: format, Atoms: resolveAltLocs(atoms)}, nil
}

type atomKey struct {
	model   int
	chain   string
	resNum  int64
	iCode   string
	residue string
	name    string
}

// resolveAltLocs keeps one atom per alternate-location group, preferring the
// highest occupancy and the first record on ties.
func resolveAltLocs(atoms []Atom) []Atom {
	out := make([]Atom, 0, len(atoms))
	index := make(map[atomKey]int)
	for _, a := range atoms {
		if a.AltLoc == "" {
			out = append(out, a)
			continue
		}
		k := atomKey{a.Model, a.Chain, a.ResidueNumber, a.InsertionCode, a.Residue, a.Name}
		if i, ok := index[k]; ok {
			if a.Occupancy > out[i].Occupancy {
				out[i] = a
			}
			continue
		}
		index[k] = len(out)
		out = append(out, a)
	}
	return out
}
