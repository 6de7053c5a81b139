// Command plansim runs retirement simulations from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wealthpath/planning-engine/internal/assumptions"
	"github.com/wealthpath/planning-engine/internal/config"
	"github.com/wealthpath/planning-engine/internal/engine"
	"github.com/wealthpath/planning-engine/internal/orchestrator"
	"github.com/wealthpath/planning-engine/internal/output"
	"github.com/wealthpath/planning-engine/internal/results"
)

var (
	inputFile       string
	formatName      string
	outputFile      bool
	assumptionsFile string
	debug           bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plansim",
		Short: "Monte Carlo retirement planning simulator",
		Long: `plansim projects retirement outcomes with a correlated Monte Carlo
simulation over a model or custom portfolio, then reports success
probability, balance percentiles, risk metrics and what-if trade-offs.`,
	}

	rootCmd.PersistentFlags().StringVar(&assumptionsFile, "assumptions", "", "YAML file overriding the built-in market assumptions")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a comprehensive simulation from a request file",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "request YAML file (required)")
	simulateCmd.Flags().StringVarP(&formatName, "format", "f", "console", fmt.Sprintf("output format: %v", output.AvailableFormatterNames()))
	simulateCmd.Flags().BoolVarP(&outputFile, "save", "s", false, "write the report to a timestamped file instead of stdout")
	simulateCmd.MarkFlagRequired("input")

	quickCmd := &cobra.Command{
		Use:   "quick",
		Short: "Run a reduced, fast simulation from a request file",
		RunE:  runQuick,
	}
	quickCmd.Flags().StringVarP(&inputFile, "input", "i", "", "request YAML file (required)")
	quickCmd.MarkFlagRequired("input")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a request file without simulating",
		RunE:  runValidate,
	}
	validateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "request YAML file (required)")
	validateCmd.MarkFlagRequired("input")

	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Show the market assumption set",
		RunE:  runAssets,
	}

	rootCmd.AddCommand(simulateCmd, quickCmd, validateCmd, assetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func newOrchestrator(log zerolog.Logger) (*orchestrator.Orchestrator, *assumptions.Provider, error) {
	provider := assumptions.NewProvider(log)
	if assumptionsFile != "" {
		if err := provider.LoadFile(assumptionsFile); err != nil {
			return nil, nil, err
		}
	}
	orch := orchestrator.New(provider, engine.New(log), results.NewCalculator(log), log)
	return orch, provider, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log := newLogger()

	req, err := config.NewRequestParser().LoadFromFile(inputFile)
	if err != nil {
		return err
	}

	orch, _, err := newOrchestrator(log)
	if err != nil {
		return err
	}

	res, err := orch.RunSimulation(context.Background(), req)
	if err != nil {
		return err
	}

	formatter := output.GetFormatterByName(formatName)
	if formatter == nil {
		return fmt.Errorf("unknown format %q, available: %v", formatName, output.AvailableFormatterNames())
	}

	if outputFile {
		ext := output.NormalizeFormatName(formatName)
		if ext == "console" {
			ext = "txt"
		}
		filename, err := output.WriteFormatted(formatter, res, ext)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", filename)
		return nil
	}

	data, err := formatter.Format(res)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runQuick(cmd *cobra.Command, args []string) error {
	log := newLogger()

	req, err := config.NewRequestParser().LoadFromFile(inputFile)
	if err != nil {
		return err
	}

	orch, _, err := newOrchestrator(log)
	if err != nil {
		return err
	}

	res, err := orch.RunQuick(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Printf("Success probability: %.1f%%\n", res.SuccessProbability*100)
	fmt.Printf("Median balance at retirement: $%s\n", res.MedianBalance.Round(0))
	fmt.Printf("Assessment: %s confidence\n", res.Assessment)
	for _, rec := range res.KeyRecommendations {
		fmt.Printf("  - %s\n", rec)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	req, err := config.NewRequestParser().LoadFromFile(inputFile)
	if err != nil {
		return err
	}
	fmt.Printf("Request is valid: %d-year horizon, %d simulations, %s risk tolerance.\n",
		req.HorizonYears(), req.NumSimulations, req.RiskTolerance)
	return nil
}

func runAssets(cmd *cobra.Command, args []string) error {
	log := newLogger()

	_, provider, err := newOrchestrator(log)
	if err != nil {
		return err
	}

	snap := provider.Snapshot()
	fmt.Printf("%-20s %-32s %8s %8s\n", "NAME", "LABEL", "RETURN", "VOL")
	for _, a := range snap.AssetClasses() {
		fmt.Printf("%-20s %-32s %7.1f%% %7.1f%%\n", a.Name, a.Label, a.ExpectedReturn*100, a.Volatility*100)
	}
	stats := provider.GetSummaryStatistics()
	fmt.Printf("\n%d asset classes, mean return %.1f%%, mean volatility %.1f%%, updated %s\n",
		stats.NumAssetClasses, stats.MeanExpectedReturn*100, stats.MeanVolatility*100,
		stats.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	return nil
}
