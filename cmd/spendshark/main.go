package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spektr-org/spendshark/assistant"
	"github.com/spektr-org/spendshark/config"
	"github.com/spektr-org/spendshark/dashboard"
	"github.com/spektr-org/spendshark/engine"
	"github.com/spektr-org/spendshark/export"
	"github.com/spektr-org/spendshark/server"
	"github.com/spektr-org/spendshark/stats"
)

// ============================================================================
// SPENDSHARK CLI: mock spend dashboard, assistant and API server
// ============================================================================

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and executes one mode. Output goes to stdout unless --out
// is set; logs and usage go to stderr.
func run(args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("spendshark", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── Flags ─────────────────────────────────────────────────────────────
	seed := fs.Uint64("seed", 0, "Random seed (0 = config value, else time-seeded)")
	invoices := fs.Int("invoices", 0, "Number of invoices to generate (0 = config value)")
	queryStr := fs.String("query", "", "Ask the assistant one question")
	showStats := fs.Bool("stats", false, "Print vendor, ROI, operator and source statistics")
	showCharts := fs.Bool("charts", false, "Print the dashboard charts")
	serve := fs.Bool("serve", false, "Start the HTTP API")
	configPath := fs.String("config", "", "Path to YAML config file")
	format := fs.String("format", "json", "Output format: json, pretty, text, csv, xlsx")
	outFile := fs.String("out", "", "Write output to file instead of stdout")
	showVersion := fs.Bool("version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Spendshark: mock spend analytics dashboard

Usage:
  spendshark --seed 42 --query "Why was invoice INV-1042 flagged?" --format text
  spendshark --stats --format pretty
  spendshark --stats --format xlsx --out dashboard.xlsx
  spendshark --serve --config spendshark.yaml

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
Environment:
  SPENDSHARK_*      Overrides config keys, e.g. SPENDSHARK_ADDR=:9090

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Human-readable summary only
  csv       Table/chart data as CSV (ready for Sheets/Excel)
  xlsx      One worksheet per table or chart (requires --out, not with --query)
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "spendshark %s\n", version)
		return nil
	}

	switch *format {
	case "json", "pretty", "text", "csv", "xlsx":
	default:
		fs.Usage()
		return fmt.Errorf("unknown format %q", *format)
	}
	if *format == "xlsx" {
		if *outFile == "" {
			return errors.New("--format xlsx requires --out")
		}
		if *queryStr != "" {
			return errors.New("--format xlsx is not available for --query")
		}
	}

	// ── Config ────────────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if fields := config.ProcessValidationErrors(err); len(fields) > 0 {
			return fmt.Errorf("invalid config: %v", fields)
		}
		return fmt.Errorf("load config: %w", err)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *invoices > 0 {
		cfg.InvoiceCount = *invoices
	}
	logger := config.GetLogger()
	logger.SetOutput(stderr)
	config.SetLogLevel(cfg.LogLevel)

	store := dashboard.NewStoreFromConfig(*cfg)

	// ── Serve mode ────────────────────────────────────────────────────────
	if *serve {
		sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stopSignals()

		if err := server.New(*cfg, store).ListenAndServe(sigCtx); err != nil {
			config.LogError(logger, "main", "serve", "http server", cfg.Addr, err)
			return err
		}
		return nil
	}

	defer store.Close()
	sess := store.Create()
	logger.WithFields(logrus.Fields{"seed": cfg.Seed, "invoices": len(sess.Data.Invoices)}).Debug("📊 dataset generated")

	// ── Output writer ─────────────────────────────────────────────────────
	out := output{w: stdout, format: *format, path: *outFile}
	if *outFile != "" && *format != "xlsx" {
		f, createErr := os.Create(*outFile)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		out.w = f
	}

	switch {
	case *queryStr != "":
		err = runQuery(out, sess, *queryStr)
	case *showStats:
		err = runStats(out, sess, *cfg)
	case *showCharts:
		err = runCharts(out, sess)
	default:
		err = runDataset(out, sess, *cfg)
	}
	if err != nil {
		return err
	}
	if *outFile != "" {
		logger.Infof("📄 %s written to %s", *format, *outFile)
	}
	return nil
}

// output is where a mode writes: w for streamed formats, path for xlsx.
type output struct {
	w      io.Writer
	format string
	path   string
}

// ============================================================================
// MODES
// ============================================================================

type queryOutput struct {
	Query string          `json:"query"`
	Reply assistant.Reply `json:"reply"`
}

// runQuery answers without the typing delay; the reply does not depend on it.
func runQuery(out output, sess *dashboard.Session, query string) error {
	reply := assistant.New(sess.Data).Resolve(query)
	switch out.format {
	case "json", "pretty":
		return writeJSON(out.w, queryOutput{Query: query, Reply: reply}, out.format)
	default:
		_, err := fmt.Fprintln(out.w, reply.Text)
		return err
	}
}

type statsOutput struct {
	Vendors   stats.VendorSummary     `json:"vendors"`
	ROI       stats.ROISummary        `json:"roi"`
	Operators []stats.OperatorSummary `json:"operators"`
	Sources   []stats.SourceSummary   `json:"sources"`
}

func runStats(out output, sess *dashboard.Session, cfg config.Config) error {
	summary := statsOutput{
		Vendors:   sess.VendorStats(),
		ROI:       sess.ROI(cfg.PlatformCostDecimal()),
		Operators: sess.Operators(cfg.TopN),
		Sources:   sess.Sources(),
	}

	switch out.format {
	case "text":
		v, r := summary.Vendors, summary.ROI
		lines := []string{
			fmt.Sprintf("Vendors: %d (%d active, %d inactive), avg risk %.2f, avg trust %.2f",
				v.Total, v.Active, v.Inactive, v.AverageRisk, v.AverageTrust),
			fmt.Sprintf("Risk buckets: High %d, Medium %d, Low %d, New %d",
				v.RiskBuckets.High, v.RiskBuckets.Medium, v.RiskBuckets.Low, v.RiskBuckets.New),
			fmt.Sprintf("Total spend: %s", engine.FormatUSD(v.TotalSpend)),
			fmt.Sprintf("Suspected: %d invoices, %s; prevented loss %s",
				r.SuspectedCount, engine.FormatUSD(r.SuspectedAmount), engine.FormatUSD(r.PreventedLoss)),
			fmt.Sprintf("Precision %.1f%%, ROI %.2fx, avg resolution %.1fh",
				r.Precision*100, r.ROIMultiple, r.AvgResolutionHours),
		}
		for _, op := range summary.Operators {
			lines = append(lines, fmt.Sprintf("  %-16s %4d processed, %3d suspected", op.Operator, op.Processed, op.Suspected))
		}
		_, err := fmt.Fprintln(out.w, strings.Join(lines, "\n"))
		return err
	case "csv", "xlsx":
		tables, err := sess.Tables(cfg.TopN)
		if err != nil {
			return fmt.Errorf("build tables: %w", err)
		}
		return writeTables(out, tables)
	default:
		return writeJSON(out.w, summary, out.format)
	}
}

func runCharts(out output, sess *dashboard.Session) error {
	charts, err := sess.Charts()
	if err != nil {
		return fmt.Errorf("build charts: %w", err)
	}

	switch out.format {
	case "csv", "xlsx":
		tables := make([]*engine.TableData, 0, len(charts))
		for _, chart := range charts {
			tables = append(tables, chartTable(chart))
		}
		return writeTables(out, tables)
	case "text":
		for _, chart := range charts {
			if _, err := fmt.Fprintf(out.w, "%s (%s, %d series)\n", chart.Title, chart.ChartType, len(chart.Series)); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeJSON(out.w, charts, out.format)
	}
}

func runDataset(out output, sess *dashboard.Session, cfg config.Config) error {
	switch out.format {
	case "csv", "xlsx":
		tables, err := sess.Tables(cfg.TopN)
		if err != nil {
			return fmt.Errorf("build tables: %w", err)
		}
		return writeTables(out, tables)
	case "text":
		_, err := fmt.Fprintf(out.w, "%d vendors, %d invoices, %d inspectors, %d predictions\n%s\n",
			len(sess.Data.Vendors), len(sess.Data.Invoices), len(sess.Data.Inspectors), len(sess.Data.Predictions),
			assistant.Greeting())
		return err
	default:
		return writeJSON(out.w, sess.Data, out.format)
	}
}

// ============================================================================
// TABLE + CHART OUTPUT
// ============================================================================

// writeTables saves one sheet per table for xlsx and blank-line separated
// blocks for csv.
func writeTables(out output, tables []*engine.TableData) error {
	if out.format == "xlsx" {
		if err := export.SaveTables(out.path, tables...); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		return nil
	}
	for i, table := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(out.w); err != nil {
				return err
			}
		}
		if err := export.WriteCSV(out.w, table); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
	}
	return nil
}

// chartTable pivots a chart into rows: label + one column per series.
func chartTable(chart *engine.ChartConfig) *engine.TableData {
	xLabel := chart.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	table := &engine.TableData{Title: chart.Title, Columns: []engine.Column{{Key: "label", Label: xLabel, Type: "text"}}}

	// Single series → two columns
	if len(chart.Series) == 1 {
		yLabel := chart.YAxis
		if yLabel == "" {
			yLabel = "Value"
		}
		table.Columns = append(table.Columns, engine.Column{Key: "value", Label: yLabel, Type: "number"})
	} else {
		for _, s := range chart.Series {
			table.Columns = append(table.Columns, engine.Column{Key: s.Name, Label: s.Name, Type: "number"})
		}
	}

	if len(chart.Series) == 0 {
		return table
	}
	for i, d := range chart.Series[0].Data {
		row := []string{d.Label}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, fmtNum(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v any, format string) error {
	var data []byte
	var err error

	if format == "pretty" {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
