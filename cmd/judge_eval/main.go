// Command judge_eval drives the LLM judge (C13) over a dataset, retrieving
// fresh evidence for each case through the retrieval orchestrator and
// scoring the result against the evaluation harness's heuristic fallback,
// per spec.md §6's
// judge_eval --dataset <json> --report <json> [--no-cache] contract.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinicalcore/retrieval-core/internal/evalharness"
	"github.com/clinicalcore/retrieval-core/internal/model"
	"github.com/clinicalcore/retrieval-core/internal/registry"
)

func main() {
	var datasetPath, reportPath string
	var noCache bool

	rootCmd := &cobra.Command{
		Use:   "judge_eval",
		Short: "Score a query-case dataset with the LLM judge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), datasetPath, reportPath, noCache)
		},
	}
	rootCmd.Flags().StringVar(&datasetPath, "dataset", "", "path to a dataset JSON file (required)")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "path to write the judge report JSON (required)")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the persistent judge cache and re-spend every call")
	rootCmd.MarkFlagRequired("dataset")
	rootCmd.MarkFlagRequired("report")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, datasetPath, reportPath string, noCache bool) error {
	ds, err := loadDataset(datasetPath)
	if err != nil {
		return err
	}

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
	reg.WithReranker()
	reg.WithOrchestrator()
	reg.WithEvidenceGate()
	if err := reg.WithGenAI(ctx); err != nil {
		return err
	}
	reg.WithJudge(noCache)

	runner := evalharness.NewRunner(reg.Orchestrator, reg.EvidenceGate, nil,
		reg.Config.RecallThreshold, reg.Config.KeywordThreshold, reg.Config.TriadPassThreshold)
	runner.SetMetrics(reg.Metrics)

	report, err := reg.Judge.JudgeDataset(ctx, runner, ds)
	if err != nil {
		return fmt.Errorf("judge_eval: %w", err)
	}

	if err := writeJSON(reportPath, report); err != nil {
		return err
	}

	slog.Info("judge_eval complete",
		"total_cases", report.TotalCases,
		"mean_overall_quality", report.MeanOverallQuality,
		"report", reportPath,
	)
	return nil
}

func loadDataset(path string) (model.Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("loadDataset: %w", err)
	}
	var ds model.Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return model.Dataset{}, fmt.Errorf("loadDataset: %w", err)
	}
	return ds, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writeJSON: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writeJSON: %w", err)
	}
	return nil
}
