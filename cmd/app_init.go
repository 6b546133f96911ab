package main

import (
	"github.com/sells-group/proviewer/internal/acquire"
	"github.com/sells-group/proviewer/internal/config"
	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/internal/resilience"
	"github.com/sells-group/proviewer/internal/session"
	"github.com/sells-group/proviewer/internal/viewer"
	"github.com/sells-group/proviewer/pkg/alphafold"
	"github.com/sells-group/proviewer/pkg/esmfold"
)

// appEnv holds the clients, acquisition service and session store needed by
// the serve, predict and fetch commands.
type appEnv struct {
	Config    *config.Config
	Predictor *acquire.Predictor
	Fetcher   *acquire.Fetcher
	Service   *acquire.Service
	Sessions  *session.Store
}

// newESMFoldClient builds the prediction client from config.
func newESMFoldClient(c *config.Config) esmfold.Client {
	return esmfold.NewClient(
		esmfold.WithBaseURL(c.ESMFold.BaseURL),
		esmfold.WithTimeout(c.ESMFold.Timeout()),
		esmfold.WithRateLimit(c.ESMFold.RatePerSec),
		esmfold.WithRetry(resilience.NewRetryConfig(c.ESMFold.MaxAttempts)),
	)
}

// newAlphaFoldClient builds the AlphaFold DB client from config.
func newAlphaFoldClient(c *config.Config) alphafold.Client {
	return alphafold.NewClient(
		alphafold.WithBaseURL(c.AlphaFold.BaseURL),
		alphafold.WithModelVersion(c.AlphaFold.ModelVersion),
		alphafold.WithTimeout(c.AlphaFold.Timeout()),
		alphafold.WithRateLimit(c.AlphaFold.RatePerSec),
		alphafold.WithRetry(resilience.NewRetryConfig(c.AlphaFold.MaxAttempts)),
	)
}

// initApp wires the acquisition service and session store around the given
// clients. Tests pass mocks or httptest-backed clients here.
func initApp(c *config.Config, esm esmfold.Client, af alphafold.Client) (*appEnv, error) {
	predictor, err := acquire.NewPredictor(esm, c.Predict.MaxSequenceLength, c.Predict.CacheSize)
	if err != nil {
		return nil, err
	}
	fetcher := acquire.NewFetcher(af)

	sessions := session.NewStore(c.Session.MaxSessions, c.Session.TTL(), session.Inputs{
		Sequence:  c.Predict.DefaultSequence,
		Accession: c.Fetch.DefaultAccession,
	})

	svc := acquire.NewService(predictor, fetcher)
	svc.OnPending = func(flow model.Flow, sess session.Session) {
		sessions.Commit(flow, sess)
	}

	return &appEnv{
		Config:    c,
		Predictor: predictor,
		Fetcher:   fetcher,
		Service:   svc,
		Sessions:  sessions,
	}, nil
}

// pageOptions returns the static page settings for tab.
func (e *appEnv) pageOptions(tab model.Flow) viewer.PageOptions {
	return viewer.PageOptions{
		Title:             "ProViewer",
		Height:            e.Config.Viewer.Height,
		MaxSequenceLength: e.Predictor.MaxSequenceLength(),
		ActiveTab:         tab,
	}
}
