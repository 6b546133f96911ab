package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/proviewer/internal/acquire"
	"github.com/sells-group/proviewer/internal/model"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [ACCESSION]",
	Short: "Download an AlphaFold DB model by UniProt accession",
	Long: `Downloads AF-{ACCESSION}-F1-model_v4.cif from AlphaFold DB, writes it and
prints its mean pLDDT. The accession defaults to the configured one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("out", "", "output file path (default AF-{ACCESSION}-F1-model_v4.cif, - for stdout)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("fetch"); err != nil {
		return err
	}

	accession := cfg.Fetch.DefaultAccession
	if len(args) == 1 {
		accession = args[0]
	}
	out, _ := cmd.Flags().GetString("out")

	return fetchTo(ctx, cmd, acquire.NewFetcher(newAlphaFoldClient(cfg)), accession, out)
}

func fetchTo(ctx context.Context, cmd *cobra.Command, fetcher *acquire.Fetcher, accession, out string) error {
	rec, err := fetcher.Fetch(ctx, accession)
	if err != nil {
		return eris.Wrap(err, "fetch")
	}
	if out == "" {
		out = rec.FileName
	}
	return writeRecord(cmd, model.FlowFetch, rec, out)
}
