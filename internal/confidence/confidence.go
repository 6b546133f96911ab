// Package confidence computes the mean pLDDT of a structure from its per-atom
// B-factor column.
package confidence

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/internal/structure"
)

// Band is one of the AlphaFold pLDDT confidence bands.
type Band string

const (
	BandVeryHigh  Band = "very_high" // >= 90
	BandConfident Band = "confident" // [70, 90)
	BandLow       Band = "low"       // [50, 70)
	BandVeryLow   Band = "very_low"  // < 50
)

// AllBands returns the bands from most to least confident.
func AllBands() []Band {
	return []Band{BandVeryHigh, BandConfident, BandLow, BandVeryLow}
}

// BandFor classifies a percentage-scale pLDDT value.
func BandFor(v float64) Band {
	switch {
	case v >= 90:
		return BandVeryHigh
	case v >= 70:
		return BandConfident
	case v >= 50:
		return BandLow
	default:
		return BandVeryLow
	}
}

// Summary describes the confidence of one structure.
type Summary struct {
	Mean       float64      `json:"mean" yaml:"mean"`
	Atoms      int          `json:"atoms" yaml:"atoms"`
	Fractional bool         `json:"fractional" yaml:"fractional"`
	Bands      map[Band]int `json:"bands" yaml:"bands"`
}

// Score returns the mean pLDDT on a 0-100 scale. ok is false when the content
// cannot be parsed or holds no atoms.
func Score(content string, format model.Format) (score float64, ok bool) {
	s, ok := Summarize(content, format)
	if !ok {
		return 0, false
	}
	return s.Mean, true
}

// Summarize parses content and aggregates its per-atom confidence values.
//
// A raw mean <= 1.0 is taken to be on a 0-1 scale and multiplied by 100. A
// percentage-scale structure whose true mean is at most 1 is indistinguishable
// from a fractional one and is scaled as well. Means above 100, as with
// crystallographic B-factors, are clamped to 100.
func Summarize(content string, format model.Format) (Summary, bool) {
	if content == "" {
		return Summary{}, false
	}

	s, err := structure.Parse(content, format)
	if err != nil {
		zap.L().Debug("confidence: structure unparseable",
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return Summary{}, false
	}
	if len(s.Atoms) == 0 {
		return Summary{}, false
	}

	var sum float64
	for _, a := range s.Atoms {
		sum += a.BFactor
	}
	mean := sum / float64(len(s.Atoms))
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return Summary{}, false
	}

	scale := 1.0
	fractional := mean <= 1.0
	if fractional {
		scale = 100
	}

	bands := make(map[Band]int, 4)
	for _, b := range AllBands() {
		bands[b] = 0
	}
	for _, a := range s.Atoms {
		bands[BandFor(a.BFactor*scale)]++
	}

	return Summary{
		Mean:       clamp(mean*scale, 0, 100),
		Atoms:      len(s.Atoms),
		Fractional: fractional,
		Bands:      bands,
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Format renders a score with two decimals, or "" when unavailable.
func Format(score float64, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.2f", score)
}
