package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/proviewer/internal/acquire"
	"github.com/sells-group/proviewer/internal/model"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict a structure from an amino-acid sequence with ESMFold",
	Long: `Sends the sequence to the ESMFold API, writes the returned PDB and
prints its mean pLDDT.

Examples:
  # Predict the default sequence
  predict

  # Predict a custom sequence and save it
  predict --sequence MKTAYIAKQR --out model.pdb`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.String("sequence", "", "amino-acid sequence (default from config)")
	f.String("out", acquire.PredictedFileName, "output file path (- for stdout)")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("predict"); err != nil {
		return err
	}

	seq, _ := cmd.Flags().GetString("sequence")
	if seq == "" {
		seq = cfg.Predict.DefaultSequence
	}
	out, _ := cmd.Flags().GetString("out")

	predictor, err := acquire.NewPredictor(newESMFoldClient(cfg), cfg.Predict.MaxSequenceLength, 0)
	if err != nil {
		return err
	}
	return predictTo(ctx, cmd, predictor, seq, out)
}

func predictTo(ctx context.Context, cmd *cobra.Command, predictor *acquire.Predictor, seq, out string) error {
	rec, err := predictor.Predict(ctx, seq)
	if err != nil {
		return eris.Wrap(err, "predict")
	}
	zap.L().Info("predicted structure", zap.Int("bytes", len(rec.Content)))
	return writeRecord(cmd, model.FlowPredict, rec, out)
}
