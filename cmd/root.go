package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/proviewer/internal/config"
)

// cfg is loaded once per invocation, before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "proviewer",
	Short: "Protein structure viewer",
	Long: `Predicts structures with ESMFold, loads uploaded PDB/mmCIF files, fetches
AlphaFold DB models and shows them with their mean pLDDT in a Mol* viewer.

Settings come from ./config.yaml and PROVIEWER_* environment variables,
e.g. PROVIEWER_PREDICT_MAX_SEQUENCE_LENGTH or PROVIEWER_SESSION_TTL_MINUTES.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = zap.L().Sync()
	},
}

func setup(*cobra.Command, []string) error {
	c, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "load config")
	}
	if err := config.InitLogger(c.Log); err != nil {
		return eris.Wrap(err, "init logger")
	}
	cfg = c
	zap.L().Debug("config loaded",
		zap.Int("max_sequence_length", cfg.Predict.MaxSequenceLength),
		zap.Int("session_ttl_minutes", cfg.Session.TTLMinutes),
	)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
