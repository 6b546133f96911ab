package acquire

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/pkg/alphafold"
)

// Fetcher downloads precomputed models from AlphaFold DB.
type Fetcher struct {
	client alphafold.Client
}

// NewFetcher creates a Fetcher.
func NewFetcher(client alphafold.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Validate trims accession and rejects an empty one. The identifier itself is
// not checked; a malformed accession surfaces as a failed download.
func (f *Fetcher) Validate(accession string) (string, error) {
	accession = strings.TrimSpace(accession)
	if accession == "" {
		return "", &ValidationError{Flow: model.FlowFetch, Level: LevelWarning, Message: "Please enter a UniProt ID."}
	}
	return accession, nil
}

// Fetch validates accession and downloads its model.
func (f *Fetcher) Fetch(ctx context.Context, accession string) (model.StructureRecord, error) {
	accession, err := f.Validate(accession)
	if err != nil {
		return model.StructureRecord{}, err
	}

	m, err := f.client.FetchModel(ctx, accession)
	if err != nil {
		return model.StructureRecord{}, &AcquisitionError{Flow: model.FlowFetch, Input: accession, Err: err}
	}

	zap.L().Info("acquire: fetched structure",
		zap.String("accession", accession),
		zap.Int("bytes", len(m.Content)),
	)
	return model.StructureRecord{
		Content:     m.Content,
		Format:      model.FormatCIF,
		SourceLabel: accession,
		FileName:    m.FileName,
	}, nil
}
