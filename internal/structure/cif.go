package structure

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/proviewer/internal/model"
)

const atomSitePrefix = "_atom_site."

// atomSiteLoop is the header and flattened value list of the _atom_site loop.
type atomSiteLoop struct {
	headers []string
	values  []string
	line    int
}

func (l *atomSiteLoop) column(name string) int {
	for i, h := range l.headers {
		if h == name {
			return i
		}
	}
	return -1
}

// parseCIF reads the _atom_site loop of an mmCIF document.
func parseCIF(content string) ([]Atom, error) {
	loop, err := scanAtomSite(content)
	if err != nil {
		return nil, err
	}

	required := []string{"Cartn_x", "Cartn_y", "Cartn_z", "B_iso_or_equiv"}
	for _, name := range required {
		if loop.column(name) < 0 {
			return nil, &ParseError{Format: model.FormatCIF, Line: loop.line, Err: eris.Errorf("missing %s%s column", atomSitePrefix, name)}
		}
	}

	width := len(loop.headers)
	if len(loop.values)%width != 0 {
		return nil, &ParseError{
			Format: model.FormatCIF,
			Line:   loop.line,
			Err:    eris.Errorf("%d values do not fill rows of %d columns", len(loop.values), width),
		}
	}

	col := func(row []string, name string) string {
		i := loop.column(name)
		if i < 0 {
			return ""
		}
		v := row[i]
		if v == "?" || v == "." {
			return ""
		}
		return v
	}
	num := func(row []string, name string) (float64, error) {
		v := col(row, name)
		f, err := parseFloat(v)
		if err != nil {
			return 0, eris.Wrapf(err, "invalid or missing %s", name)
		}
		return f, nil
	}

	atoms := make([]Atom, 0, len(loop.values)/width)
	for r := 0; r < len(loop.values); r += width {
		row := loop.values[r : r+width]
		a := Atom{
			Name:          firstNonEmpty(col(row, "label_atom_id"), col(row, "auth_atom_id")),
			AltLoc:        col(row, "label_alt_id"),
			Residue:       firstNonEmpty(col(row, "label_comp_id"), col(row, "auth_comp_id")),
			Chain:         firstNonEmpty(col(row, "auth_asym_id"), col(row, "label_asym_id")),
			InsertionCode: col(row, "pdbx_PDB_ins_code"),
			Element:       col(row, "type_symbol"),
			HetAtom:       col(row, "group_PDB") == "HETATM",
			Model:         1,
			Occupancy:     1.0,
		}
		a.Serial, _ = strconv.ParseInt(col(row, "id"), 10, 64)
		a.ResidueNumber, _ = strconv.ParseInt(firstNonEmpty(col(row, "auth_seq_id"), col(row, "label_seq_id")), 10, 64)
		if m, err := strconv.Atoi(col(row, "pdbx_PDB_model_num")); err == nil {
			a.Model = m
		}
		if v, err := parseFloat(col(row, "occupancy")); err == nil {
			a.Occupancy = v
		}

		var err error
		if a.X, err = num(row, "Cartn_x"); err != nil {
			return nil, &ParseError{Format: model.FormatCIF, Line: loop.line, Err: err}
		}
		if a.Y, err = num(row, "Cartn_y"); err != nil {
			return nil, &ParseError{Format: model.FormatCIF, Line: loop.line, Err: err}
		}
		if a.Z, err = num(row, "Cartn_z"); err != nil {
			return nil, &ParseError{Format: model.FormatCIF, Line: loop.line, Err: err}
		}
		if a.BFactor, err = num(row, "B_iso_or_equiv"); err != nil {
			return nil, &ParseError{Format: model.FormatCIF, Line: loop.line, Err: err}
		}
		atoms = append(atoms, a)
	}
	return atoms, nil
}

// scanAtomSite finds the first loop_ whose tags belong to _atom_site and
// collects its values, honouring quoted tokens and ;-delimited text fields.
func scanAtomSite(content string) (*atomSiteLoop, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var (
		loop       *atomSiteLoop
		inLoop     bool
		inHeader   bool
		sawDataBlk bool
	)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(line, ";") {
			// Multi-line text field: everything up to the closing ';' line.
			var b strings.Builder
			b.WriteString(strings.TrimPrefix(line, ";"))
			closed := false
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(lines[i], ";") {
					closed = true
					break
				}
				b.WriteString("\n")
				b.WriteString(lines[i])
			}
			if !closed {
				return nil, &ParseError{Format: model.FormatCIF, Line: i, Err: eris.New("unterminated text field")}
			}
			if loop != nil {
				inHeader = false
				loop.values = append(loop.values, b.String())
			}
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "data_"):
			sawDataBlk = true
			if loop != nil {
				return loop, nil
			}
			inLoop, inHeader = false, false
			continue
		case lower == "loop_":
			if loop != nil {
				return loop, nil
			}
			inLoop, inHeader = true, true
			continue
		case strings.HasPrefix(trimmed, "_"):
			if loop != nil && !inHeader {
				return loop, nil
			}
			if inLoop && inHeader {
				tag := strings.Fields(trimmed)[0]
				if strings.HasPrefix(tag, atomSitePrefix) {
					if loop == nil {
						loop = &atomSiteLoop{line: i + 1}
					}
					loop.headers = append(loop.headers, strings.TrimPrefix(tag, atomSitePrefix))
				} else if loop == nil {
					// Some other category's loop.
					inLoop = false
				}
			}
			continue
		}

		if loop == nil {
			continue
		}
		inHeader = false
		toks, err := tokenizeCIF(trimmed)
		if err != nil {
			return nil, &ParseError{Format: model.FormatCIF, Line: i + 1, Err: err}
		}
		loop.values = append(loop.values, toks...)
	}

	if loop == nil {
		if !sawDataBlk {
			return nil, &ParseError{Format: model.FormatCIF, Err: eris.New("no data block")}
		}
		return nil, &ParseError{Format: model.FormatCIF, Err: eris.New("no _atom_site loop")}
	}
	return loop, nil
}

// tokenizeCIF splits one line into whitespace separated values. A value that
// starts with a quote runs until the matching quote followed by whitespace.
func tokenizeCIF(line string) ([]string, error) {
	var out []string
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		if line[i] == '#' {
			break
		}
		if q := line[i]; q == '\'' || q == '"' {
			j := i + 1
			for {
				if j >= len(line) {
					return nil, eris.Errorf("unterminated quoted value at column %d", i+1)
				}
				if line[j] == q && (j+1 == len(line) || line[j+1] == ' ' || line[j+1] == '\t') {
					break
				}
				j++
			}
			out = append(out, line[i+1:j])
			i = j + 1
			continue
		}
		j := i
		for j < len(line) && line[j] != ' ' && line[j] != '\t' {
			j++
		}
		out = append(out, line[i:j])
		i = j
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
