package acquire

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/proviewer/internal/model"
	"github.com/sells-group/proviewer/pkg/esmfold"
)

// PredictedFileName is the download name of a predicted structure.
const PredictedFileName = "predicted.pdb"

// DefaultMaxSequenceLength is the longest sequence sent to the folding service.
const DefaultMaxSequenceLength = 400

// Predictor folds sequences through ESMFold. Successful folds are memoized by
// exact sequence text and concurrent identical requests share one call.
type Predictor struct {
	client esmfold.Client
	maxLen int
	cache  *lru.Cache[string, string]
	group  singleflight.Group
}

// NewPredictor creates a Predictor. cacheSize <= 0 disables memoization.
func NewPredictor(client esmfold.Client, maxLen, cacheSize int) (*Predictor, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxSequenceLength
	}
	p := &Predictor{client: client, maxLen: maxLen}
	if cacheSize > 0 {
		cache, err := lru.New[string, string](cacheSize)
		if err != nil {
			return nil, eris.Wrap(err, "acquire: create prediction cache")
		}
		p.cache = cache
	}
	return p, nil
}

// MaxSequenceLength returns the configured length limit.
func (p *Predictor) MaxSequenceLength() int {
	return p.maxLen
}

// Validate trims seq and checks it against the length limit.
func (p *Predictor) Validate(seq string) (string, error) {
	seq = strings.TrimSpace(seq)
	if seq == "" {
		return "", &ValidationError{Flow: model.FlowPredict, Level: LevelWarning, Message: "Please enter a sequence."}
	}
	if utf8.RuneCountInString(seq) > p.maxLen {
		return "", &ValidationError{
			Flow:    model.FlowPredict,
			Level:   LevelError,
			Message: fmt.Sprintf("Sequence too long: max %d characters.", p.maxLen),
		}
	}
	return seq, nil
}

// Predict validates seq and returns the predicted structure.
func (p *Predictor) Predict(ctx context.Context, seq string) (model.StructureRecord, error) {
	seq, err := p.Validate(seq)
	if err != nil {
		return model.StructureRecord{}, err
	}

	content, cached, err := p.fold(ctx, seq)
	if err != nil {
		return model.StructureRecord{}, &AcquisitionError{Flow: model.FlowPredict, Input: seq, Err: err}
	}

	zap.L().Info("acquire: predicted structure",
		zap.Int("sequence_len", len(seq)),
		zap.Bool("cached", cached),
	)
	return model.StructureRecord{
		Content:  content,
		Format:   model.FormatPDB,
		FileName: PredictedFileName,
	}, nil
}

func (p *Predictor) fold(ctx context.Context, seq string) (content string, cached bool, err error) {
	if p.cache != nil {
		if v, ok := p.cache.Get(seq); ok {
			return v, true, nil
		}
	}

	// The shared call ignores the first caller's cancellation and is bounded
	// by the ESMFold client's timeout. Each waiter gives up on its own ctx.
	ch := p.group.DoChan(seq, func() (any, error) {
		pdb, err := p.client.Fold(context.WithoutCancel(ctx), seq)
		if err != nil {
			return "", err
		}
		if p.cache != nil {
			p.cache.Add(seq, pdb)
		}
		return pdb, nil
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		return res.Val.(string), false, nil
	}
}
