package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/quota-hawk/internal/classifier"
	"github.com/Veraticus/quota-hawk/internal/cli"
	"github.com/Veraticus/quota-hawk/internal/common"
	"github.com/Veraticus/quota-hawk/internal/config"
	"github.com/Veraticus/quota-hawk/internal/core"
	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/modelcache"
	"github.com/Veraticus/quota-hawk/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run all anomaly detectors over a reimbursement dataset",
		Long: `Run the full classifier battery over a CEAP dataset and write the
merged suspicions table.

The input is the cleaned reimbursements CSV (plain or xz-compressed); the
output is an xz-compressed CSV with one boolean column per detector, keyed
by (applicant_id, year, document_id).

Examples:
  hawk detect --input reimbursements.csv.xz --output suspicions.csv.xz
  hawk detect --input reimbursements.csv --no-cache`,
		RunE: runDetect,
	}

	// Flags
	cmd.Flags().StringP("input", "i", "", "reimbursements CSV path (plain or .xz)")
	cmd.Flags().StringP("output", "o", "suspicions.csv.xz", "suspicions CSV path")
	cmd.Flags().Bool("no-cache", false, "skip the fitted-model cache, always refit")
	cmd.Flags().Float64("contamination", 0.001, "target flag rate for traveled-speeds calibration")

	// Bind to viper (errors are rare and can be ignored in practice)
	_ = viper.BindPFlag("detect.input", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("detect.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("detect.no_cache", cmd.Flags().Lookup("no-cache"))
	_ = viper.BindPFlag("detect.contamination", cmd.Flags().Lookup("contamination"))

	return cmd
}

func runDetect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	input := config.ExpandPath(viper.GetString("detect.input"))
	if input == "" {
		return common.NewUserError("an input dataset is required (--input)", common.ErrMissingConfig)
	}
	outPath := config.ExpandPath(viper.GetString("detect.output"))

	slog.Info("Loading dataset", "path", input)
	ds, err := dataset.Load(input)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if ds.Len() == 0 {
		return common.NewUserError("the input dataset has no records", common.ErrNoRecords)
	}

	classifiers, err := buildClassifiers()
	if err != nil {
		return err
	}

	var cache core.ModelCache
	if !viper.GetBool("detect.no_cache") {
		cachePath := viper.GetString("cache.path")
		if cachePath == "" {
			cachePath = "~/.local/share/hawk/models.db"
		}
		sqlCache, cacheErr := modelcache.NewSQLiteCache(config.ExpandPath(cachePath))
		if cacheErr != nil {
			return fmt.Errorf("failed to open model cache: %w", cacheErr)
		}
		defer func() {
			if closeErr := sqlCache.Close(); closeErr != nil {
				slog.Error("Failed to close model cache", "error", closeErr)
			}
		}()
		cache = sqlCache
	}

	orchestrator := core.New(cache, output.NewWriter(outPath), core.Config{ShowProgress: true}, classifiers...)

	suspicions, err := orchestrator.Run(ctx, ds)
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderSummary(orchestrator.Columns(), suspicions))
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Wrote %s", outPath)))
	return nil
}

// buildClassifiers assembles the full battery in its canonical order.
func buildClassifiers() ([]classifier.Classifier, error) {
	speedsCfg := classifier.DefaultTraveledSpeedsConfig()
	speedsCfg.Contamination = viper.GetFloat64("detect.contamination")
	speeds, err := classifier.NewTraveledSpeeds(speedsCfg)
	if err != nil {
		return nil, common.NewUserError("invalid traveled-speeds configuration", err)
	}

	return []classifier.Classifier{
		classifier.NewMealPrice(classifier.DefaultMealPriceConfig()),
		speeds,
		classifier.NewMonthlySubquotaLimit(),
		classifier.NewInvalidCnpjCpf(),
		classifier.NewElectionExpenses(),
		classifier.NewIrregularCompanies(),
	}, nil
}
