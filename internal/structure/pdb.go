package structure

import (
	"bufio"
	"errors"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proviewer/internal/model"
)

// pdbLine wraps one fixed-column PDB record. Columns are 1-based and
// inclusive, matching the wwPDB format documentation.
type pdbLine string

func (l pdbLine) cols(start, end int) string {
	rs, re := start-1, end
	if rs < 0 || rs >= len(l) {
		return ""
	}
	if re > len(l) {
		re = len(l)
	}
	return strings.TrimSpace(string(l[rs:re]))
}

func (l pdbLine) record() string {
	return l.cols(1, 6)
}

// parsePDB reads ATOM and HETATM records from every MODEL.
func parsePDB(content string) ([]Atom, error) {
	var atoms []Atom
	modelNum := 0

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := pdbLine(strings.TrimRight(sc.Text(), "\r"))

		switch line.record() {
		case "MODEL":
			if n, err := strconv.Atoi(line.cols(11, 14)); err == nil {
				modelNum = n
			} else {
				modelNum++
			}
		case "END":
			return atoms, nil
		case "ATOM", "HETATM":
			atom, err := parseAtomRecord(line, modelNum)
			if err != nil {
				return nil, &ParseError{Format: model.FormatPDB, Line: lineNo, Err: err}
			}
			atoms = append(atoms, atom)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Format: model.FormatPDB, Err: eris.Wrap(err, "scan")}
	}
	return atoms, nil
}

// https://www.wwpdb.org/documentation/file-format-content/format33/sect9.html#ATOM
func parseAtomRecord(l pdbLine, modelNum int) (Atom, error) {
	a := Atom{
		Model:         modelNum,
		Name:          l.cols(13, 16),
		AltLoc:        l.cols(17, 17),
		Residue:       l.cols(18, 20),
		Chain:         l.cols(22, 22),
		InsertionCode: l.cols(27, 27),
		Element:       l.cols(77, 78),
		HetAtom:       l.record() == "HETATM",
		Occupancy:     1.0,
	}

	a.Serial, _ = strconv.ParseInt(l.cols(7, 11), 10, 64)
	a.ResidueNumber, _ = strconv.ParseInt(l.cols(23, 26), 10, 64)

	var err error
	if a.X, err = parseFloat(l.cols(31, 38)); err != nil {
		return a, eris.Wrap(err, "invalid or missing x coordinate")
	}
	if a.Y, err = parseFloat(l.cols(39, 46)); err != nil {
		return a, eris.Wrap(err, "invalid or missing y coordinate")
	}
	if a.Z, err = parseFloat(l.cols(47, 54)); err != nil {
		return a, eris.Wrap(err, "invalid or missing z coordinate")
	}

	// Occupancy and B-factor are optional in truncated records; unreadable
	// text keeps the default but NaN or Inf is rejected.
	if s := l.cols(55, 60); s != "" {
		v, err := parseFloat(s)
		switch {
		case errors.Is(err, errNonFinite):
			return a, eris.Wrap(err, "invalid occupancy")
		case err == nil:
			a.Occupancy = v
		}
	}
	if s := l.cols(61, 66); s != "" {
		v, err := parseFloat(s)
		switch {
		case errors.Is(err, errNonFinite):
			return a, eris.Wrap(err, "invalid B-factor")
		case err == nil:
			a.BFactor = v
		}
	}
	return a, nil
}
