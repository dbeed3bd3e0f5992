// Command generate_synthetic drives the synthetic question generator
// (C12) over the ingested chunk corpus, per spec.md §6's
// generate_synthetic --chunks <N> --output <json> contract.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicalcore/retrieval-core/internal/registry"
)

func main() {
	var chunks int
	var output, version string

	rootCmd := &cobra.Command{
		Use:   "generate_synthetic",
		Short: "Generate a synthetic question/answer dataset from the ingested chunk corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), chunks, output, version)
		},
	}
	rootCmd.Flags().IntVar(&chunks, "chunks", 0, "number of chunks to sample one question each from (required)")
	rootCmd.Flags().StringVar(&output, "output", "", "path to write the generated dataset JSON (required)")
	rootCmd.Flags().StringVar(&version, "dataset-version", "", "version tag for the generated dataset (defaults to a timestamp)")
	rootCmd.MarkFlagRequired("chunks")
	rootCmd.MarkFlagRequired("output")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, n int, output, version string) error {
	if version == "" {
		version = "synthetic-" + time.Now().UTC().Format("20060102-150405")
	}

	reg, err := registry.New()
	if err != nil {
		return err
	}
	defer reg.Close()

	if err := reg.WithGenAI(ctx); err != nil {
		return err
	}
	reg.WithDocIndex()
	reg.WithSynthetic()

	ds, err := reg.Synthetic.GenerateDataset(ctx, n, version)
	if err != nil {
		return fmt.Errorf("generate_synthetic: %w", err)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("generate_synthetic: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("generate_synthetic: %w", err)
	}

	slog.Info("generate_synthetic complete", "cases", len(ds.Cases), "version", ds.Version, "output", output)
	return nil
}
