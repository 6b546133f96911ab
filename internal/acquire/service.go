// Package acquire implements the three ways a structure enters a session:
// prediction from a sequence, file upload, and AlphaFold DB download.
package acquire

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/internal/session"
)

// Service runs acquisitions against a session snapshot and returns the next
// snapshot. It never mutates its input.
type Service struct {
	predictor *Predictor
	fetcher   *Fetcher

	// OnPending, when set, receives the session as soon as a remote
	// acquisition of flow starts.
	OnPending func(flow model.Flow, sess session.Session)
}

// NewService creates a Service.
func NewService(predictor *Predictor, fetcher *Fetcher) *Service {
	return &Service{predictor: predictor, fetcher: fetcher}
}

// MaxSequenceLength returns the predictor's length limit.
func (s *Service) MaxSequenceLength() int {
	return s.predictor.MaxSequenceLength()
}

// Predict folds seq. The raw input is kept in the session whatever happens.
func (s *Service) Predict(ctx context.Context, sess session.Session, seq string) session.Session {
	sess = sess.WithSequence(seq)

	trimmed, err := s.predictor.Validate(seq)
	if err != nil {
		return s.fail(sess, model.FlowPredict, err)
	}

	sess = s.begin(sess, model.FlowPredict, trimmed)
	start := time.Now()
	rec, err := s.predictor.Predict(ctx, trimmed)
	if err != nil {
		return s.fail(sess, model.FlowPredict, err)
	}
	zap.L().Debug("acquire: predict complete",
		zap.String("session", sess.ID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return sess.Complete(model.FlowPredict, rec)
}

// Fetch downloads the AlphaFold DB model for accession.
func (s *Service) Fetch(ctx context.Context, sess session.Session, accession string) session.Session {
	sess = sess.WithAccession(accession)

	trimmed, err := s.fetcher.Validate(accession)
	if err != nil {
		return s.fail(sess, model.FlowFetch, err)
	}

	sess = s.begin(sess, model.FlowFetch, trimmed)
	rec, err := s.fetcher.Fetch(ctx, trimmed)
	if err != nil {
		return s.fail(sess, model.FlowFetch, err)
	}
	return sess.Complete(model.FlowFetch, rec)
}

// Upload stores an uploaded file, replacing any earlier upload.
func (s *Service) Upload(sess session.Session, name string, data []byte) session.Session {
	rec, err := ReadUpload(name, data)
	if err != nil {
		return s.fail(sess, model.FlowUpload, err)
	}
	zap.L().Info("acquire: uploaded structure",
		zap.String("session", sess.ID),
		zap.String("file", rec.FileName),
		zap.String("format", string(rec.Format)),
		zap.Int("bytes", len(rec.Content)),
	)
	return sess.Complete(model.FlowUpload, rec)
}

// Clear empties flow.
func (s *Service) Clear(sess session.Session, flow model.Flow) session.Session {
	zap.L().Debug("acquire: clear", zap.String("session", sess.ID), zap.String("flow", string(flow)))
	return sess.Clear(flow)
}

func (s *Service) begin(sess session.Session, flow model.Flow, input string) session.Session {
	sess = sess.Begin(flow, input)
	if s.OnPending != nil {
		s.OnPending(flow, sess)
	}
	return sess
}

func (s *Service) fail(sess session.Session, flow model.Flow, err error) session.Session {
	zap.L().Warn("acquire: failed",
		zap.String("session", sess.ID),
		zap.String("flow", string(flow)),
		zap.Error(err),
	)
	return sess.Fail(flow, err)
}
