package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hollisfi/ledgerlens/internal/cli"
	"github.com/hollisfi/ledgerlens/internal/ingest"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import statement files as sessions",
		Long: `Import one or more extracted statements (JSON, CSV, or OFX/QFX).
Each file becomes a session; files imported together share a batch id so
reports and risk assessments can span the whole submission.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("bank", "", "bank name to record on the sessions")
	cmd.Flags().String("batch", "", "existing batch id to append to (default: new batch)")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	bankName, _ := cmd.Flags().GetString("bank")
	batchID, _ := cmd.Flags().GetString("batch")
	if batchID == "" {
		batchID = ingest.NewBatchID()
	}

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	importer := ingest.NewImporter(a.store)

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("importing statements"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	imported := 0
	for _, path := range args {
		txns, fileBank, err := ingest.ReadFile(path)
		if err != nil {
			return err
		}
		if fileBank == "" {
			fileBank = bankName
		}

		session, err := importer.Import(ctx, batchID, filepath.Base(path), fileBank, txns)
		if err != nil {
			return err
		}
		imported++
		_ = bar.Add(1)

		slog.Debug("statement imported",
			"session_id", session.ID,
			"source_file", path)
	}
	_ = bar.Finish()

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d statement(s) into batch %s", imported, batchID)))
	fmt.Println(cli.SubtleStyle.Render("Next: lens sessions list, then lens classify suggest <session-id>"))
	return nil
}
