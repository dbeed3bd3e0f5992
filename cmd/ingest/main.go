// Command ingest drives the ingestion pipeline (C7) against a single
// document or a directory of them, per spec.md §6's
// ingest(path_or_directory, force=False) contract.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinicalcore/retrieval-core/internal/registry"
)

func main() {
	var force bool

	rootCmd := &cobra.Command{
		Use:   "ingest [path-or-directory]",
		Short: "Parse, chunk, embed, and index a document or directory of documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], force)
		},
	}
	rootCmd.Flags().BoolVar(&force, "force", false, "re-process documents even if their content hash is unchanged")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, pathOrDir string, force bool) error {
	reg, err := registry.New()
	if err != nil {
		return err
	}
	defer reg.Close()

	if err := reg.WithVectorStore(ctx); err != nil {
		return err
	}
	if err := reg.WithLexicalIndex(); err != nil {
		return err
	}
	if err := reg.WithEmbeddingGateway(ctx); err != nil {
		return err
	}
	if err := reg.WithPipeline(ctx); err != nil {
		return err
	}

	report, err := reg.Pipeline.Ingest(ctx, pathOrDir, force)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	slog.Info("ingest complete",
		"documents_processed", report.Processed,
		"chunks_produced", report.ChunksTotal,
		"documents_skipped", report.Skipped,
		"failures", len(report.Failures),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
