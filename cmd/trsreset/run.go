package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meenmo/trsreset/config"
	"github.com/meenmo/trsreset/journal"
	"github.com/meenmo/trsreset/logger"
	"github.com/meenmo/trsreset/metrics"
	"github.com/meenmo/trsreset/product"
	"github.com/meenmo/trsreset/quote"
	"github.com/meenmo/trsreset/sim"
)

// CashflowLine is one emitted payment.
type CashflowLine struct {
	Leg         string          `json:"leg"`
	Date        string          `json:"date"`
	Kind        string          `json:"kind"`
	Payer       string          `json:"payer"`
	Receiver    string          `json:"receiver"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Duration    float64         `json:"duration"`
	FltRateComp float64         `json:"flt_rate_comp"`
}

// SummaryLine closes the output of a run.
type SummaryLine struct {
	Leg      string          `json:"leg,omitempty"`
	Payments int             `json:"payments"`
	Resets   int             `json:"resets"`
	Total    decimal.Decimal `json:"total"`
	Quotity  float64         `json:"quotity"`
	RunID    string          `json:"run_id,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func runLeg(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML run config path (optional)")
	scenarioPath := fs.String("scenario", "", "YAML scenario path (optional; if set, ignores stdin)")
	perspective := fs.String("perspective", "", "Party whose quote sides are used (default mid)")
	forceMid := fs.Bool("force-mid", false, "Price every observable at mid")
	dbPath := fs.String("db", "", "sqlite cashflow journal path")
	metricsFile := fs.String("metrics-file", "", "Write prometheus metrics to this file after the run")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		runUsage(stderr)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return writeError(stdout, err.Error())
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *dbPath != "" {
		cfg.Journal.Path = *dbPath
	}
	if *perspective != "" {
		cfg.Pricing.Perspective = *perspective
	}
	if *forceMid {
		cfg.Pricing.ForceMid = true
	}
	if err := cfg.Validate(); err != nil {
		return writeError(stdout, err.Error())
	}

	log, closer := logger.New(cfg, stderr)
	defer closer.Close()

	path := strings.TrimSpace(*scenarioPath)
	if path == "" {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				runUsage(stderr)
				return 2
			}
		}
	}
	scenario, err := loadScenario(stdin, path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read scenario: %v", err))
	}
	built, err := scenario.Build()
	if err != nil {
		return writeError(stdout, err.Error())
	}

	p, err := product.New(built.Leg,
		product.WithLogger(log),
		product.WithPerspective(quote.Perspective{Party: cfg.Pricing.Perspective, ForceMid: cfg.Pricing.ForceMid}),
	)
	if err != nil {
		return writeError(stdout, err.Error())
	}

	m := metrics.New()
	opts := []sim.RunnerOption{sim.WithSink(m), sim.WithRunnerLogger(log)}
	var runID string
	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return writeError(stdout, err.Error())
		}
		defer store.Close()
		runID = store.RunID()
		opts = append(opts, sim.WithSink(store))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, runErr := sim.NewRunner(built.Model, opts...).Run(ctx, p)

	enc := json.NewEncoder(stdout)
	summary := SummaryLine{Leg: p.ID(), Total: decimal.Zero, Quotity: p.State().Quotity, RunID: runID}
	for _, res := range results {
		if res.Kind == product.EventReset && len(res.Output.Payments) > 0 {
			summary.Resets++
		}
		for _, pay := range res.Output.Payments {
			amount, err := journal.Amount(pay.Currency, pay.Amount)
			if err != nil {
				if runErr == nil {
					runErr = fmt.Errorf("%s payment on %s: %w", res.Kind, pay.Date.Format("2006-01-02"), err)
				}
				continue
			}
			summary.Payments++
			summary.Total = summary.Total.Add(amount)
			enc.Encode(CashflowLine{
				Leg:         p.ID(),
				Date:        pay.Date.Format("2006-01-02"),
				Kind:        string(res.Kind),
				Payer:       pay.Payer,
				Receiver:    pay.Receiver,
				Currency:    string(pay.Currency),
				Amount:      amount,
				Duration:    res.Output.Observables[product.ObservableDuration],
				FltRateComp: res.Output.Observables[product.ObservableFloatRateComponent],
			})
		}
	}

	if *metricsFile != "" {
		if err := m.WriteTextfile(*metricsFile); err != nil {
			log.Warn("metrics not written", slog.String("file", *metricsFile), slog.Any("error", err))
		}
	}

	if runErr != nil {
		summary.Error = runErr.Error()
		enc.Encode(summary)
		return 1
	}
	enc.Encode(summary)
	return 0
}

func runUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  trsreset run < scenario.yaml")
	fmt.Fprintln(w, "  trsreset run -scenario /path/to/scenario.yaml [-config run.yaml] [-perspective PARTY] [-db cashflows.db]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run every fixing, reset evaluation and payment of the leg, output JSON lines to stdout.")
}

func loadScenario(stdin io.Reader, path string) (*config.Scenario, error) {
	if path != "" {
		return config.LoadScenario(path)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, err
	}
	return config.ParseScenario(data)
}

func writeError(stdout io.Writer, msg string) int {
	outputBytes, _ := json.Marshal(SummaryLine{Total: decimal.Zero, Error: msg})
	fmt.Fprintln(stdout, string(outputBytes))
	return 1
}
