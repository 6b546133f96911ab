package model

import (
	"path/filepath"
	"strings"
)

// Format is the text encoding of a structure file.
type Format string

const (
	FormatPDB Format = "pdb"
	FormatCIF Format = "cif"
)

// ParseFormat maps a tag such as "PDB" or ".cif" to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "pdb":
		return FormatPDB, true
	case "cif", "mmcif":
		return FormatCIF, true
	default:
		return "", false
	}
}

// FormatFromFileName derives the format from a file name suffix. Only .pdb
// and .cif are recognised; the "mmcif" alias of ParseFormat is not a suffix.
func FormatFromFileName(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdb":
		return FormatPDB, true
	case ".cif":
		return FormatCIF, true
	default:
		return "", false
	}
}

// MediaType returns the download media type for the format.
func (f Format) MediaType() string {
	switch f {
	case FormatPDB:
		return "chemical/x-pdb"
	case FormatCIF:
		return "chemical/x-mmcif"
	default:
		return "text/plain"
	}
}

// Flow identifies one of the acquisition flows.
type Flow string

const (
	FlowPredict Flow = "predict"
	FlowUpload  Flow = "upload"
	FlowFetch   Flow = "afdb"
)

// AllFlows returns the flows in display order.
func AllFlows() []Flow {
	return []Flow{FlowPredict, FlowUpload, FlowFetch}
}

// ParseFlow maps a route segment to a Flow.
func ParseFlow(s string) (Flow, bool) {
	for _, f := range AllFlows() {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// StructureRecord is the result of one successful acquisition.
type StructureRecord struct {
	Content string `json:"content" yaml:"-"`
	Format  Format `json:"format" yaml:"format"`
	// SourceLabel is the accession for fetched records and the file name for
	// uploads. Empty for predictions.
	SourceLabel string `json:"source_label,omitempty" yaml:"source_label,omitempty"`
	// FileName is the name the content is offered under for download.
	FileName string `json:"file_name" yaml:"file_name"`
}
