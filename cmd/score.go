package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/proviewer/internal/acquire"
	"github.com/sells-group/proviewer/internal/confidence"
	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/internal/viewer"
)

var scoreCmd = &cobra.Command{
	Use:   "score FILE",
	Short: "Compute the mean pLDDT of a local PDB or mmCIF file",
	Long: `Reads a structure file and reports the mean of its per-atom B-factor
(pLDDT) column together with the AlphaFold confidence band counts. Means of
1.0 or less are treated as fractional and scaled by 100.

Examples:
  score model.pdb
  score AF-Q8W3K0-F1-model_v4.cif --output json
  score structure.txt --format cif --output yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("output", "text", "output format: text, json or yaml")
	f.String("format", "", "structure format: pdb or cif (default from file suffix)")
	rootCmd.AddCommand(scoreCmd)
}

// scoreReport is the machine-readable score output.
type scoreReport struct {
	File       string                  `json:"file" yaml:"file"`
	Format     model.Format            `json:"format" yaml:"format"`
	Available  bool                    `json:"available" yaml:"available"`
	Score      *float64                `json:"score" yaml:"score"`
	Atoms      int                     `json:"atoms" yaml:"atoms"`
	Fractional bool                    `json:"fractional" yaml:"fractional"`
	Bands      map[confidence.Band]int `json:"bands,omitempty" yaml:"bands,omitempty"`
	Key        string                  `json:"key" yaml:"key"`
}

func runScore(cmd *cobra.Command, args []string) error {
	path := args[0]
	output, _ := cmd.Flags().GetString("output")
	formatFlag, _ := cmd.Flags().GetString("format")

	if output != "text" && output != "json" && output != "yaml" {
		return eris.Errorf("score: --output must be text, json or yaml (got %q)", output)
	}

	var (
		format model.Format
		ok     bool
	)
	if formatFlag != "" {
		format, ok = model.ParseFormat(formatFlag)
	} else {
		format, ok = model.FormatFromFileName(path)
	}
	if !ok {
		return eris.Errorf("score: cannot determine structure format of %q; pass --format pdb or --format cif", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "score: read %s", path)
	}
	content, err := acquire.DecodeUpload(data)
	if err != nil {
		return eris.Wrapf(err, "score: decode %s", path)
	}

	report := buildScoreReport(filepath.Base(path), content, format)
	return printScoreReport(cmd.OutOrStdout(), report, output)
}

func buildScoreReport(name, content string, format model.Format) scoreReport {
	r := scoreReport{
		File:   name,
		Format: format,
		Key:    viewer.Key("score", content, format),
	}
	if sum, ok := confidence.Summarize(content, format); ok {
		mean := sum.Mean
		r.Available = true
		r.Score = &mean
		r.Atoms = sum.Atoms
		r.Fractional = sum.Fractional
		r.Bands = sum.Bands
	}
	return r
}

func printScoreReport(w io.Writer, r scoreReport, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "score: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "score: encode yaml")
		}
		return eris.Wrap(enc.Close(), "score: encode yaml")
	}

	fmt.Fprintf(w, "File:        %s\n", r.File)
	fmt.Fprintf(w, "Format:      %s\n", r.Format)
	if !r.Available {
		fmt.Fprintln(w, "Avg. pLDDT:  unavailable")
		return nil
	}
	fmt.Fprintf(w, "Avg. pLDDT:  %s\n", confidence.Format(*r.Score, true))
	fmt.Fprintf(w, "Atoms:       %d\n", r.Atoms)
	if r.Fractional {
		fmt.Fprintln(w, "Scale:       fractional (x100)")
	}
	fmt.Fprintln(w, "\nBands:")
	for _, b := range confidence.AllBands() {
		fmt.Fprintf(w, "  %-12s %d\n", b, r.Bands[b])
	}
	return nil
}

// writeRecord writes rec's content to out ("-" for stdout) and prints its
// score. The score goes to stderr when the content itself is on stdout.
func writeRecord(cmd *cobra.Command, flow model.Flow, rec model.StructureRecord, out string) error {
	info := cmd.OutOrStdout()
	if out == "-" {
		if _, err := io.WriteString(cmd.OutOrStdout(), rec.Content); err != nil {
			return eris.Wrap(err, "write structure")
		}
		info = cmd.ErrOrStderr()
	} else {
		if err := os.WriteFile(out, []byte(rec.Content), 0o644); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}
		fmt.Fprintf(info, "Wrote %s (%d bytes)\n", out, len(rec.Content))
	}

	score, ok := confidence.Score(rec.Content, rec.Format)
	if !ok {
		fmt.Fprintln(info, "Avg. pLDDT: unavailable")
	} else {
		fmt.Fprintf(info, "Avg. pLDDT: %s\n", confidence.Format(score, ok))
	}
	fmt.Fprintf(info, "Viewer key: %s\n", viewer.Key(string(flow), rec.Content, rec.Format))
	return nil
}
