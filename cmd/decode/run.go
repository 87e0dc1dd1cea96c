package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/JonMunkholm/setdecoder/internal/csvio"
	"github.com/JonMunkholm/setdecoder/internal/history"
	"github.com/JonMunkholm/setdecoder/internal/workspace"
	"github.com/spf13/cobra"
)

const defaultOutput = "processed_orders.csv"

var errNoOrders = errors.New("no order files given")

type runOptions struct {
	master       string
	orders       []string
	ordersDir    string
	out          string
	preset       string
	generateSKUs bool
	additions    []string
	review       bool
	strict       bool
	noHistory    bool

	emptySets     string
	expandTargets bool
	encoding      string
	delimiter     string
}

// manualLine is one --add ORDER:SKU:QTY value.
type manualLine struct {
	orderID  string
	sku      string
	quantity int
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Expand the sets in one or more order exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyDecodeFlags(cmd, &opts)
			return runDecode(cmd.Context(), a, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.master, "master", "m", "", "Master workbook with PRODUCTS, SETS and optional ADDITION sheets (required)")
	f.StringArrayVarP(&opts.orders, "orders", "i", nil, "Order CSV export; repeat for several files")
	f.StringVar(&opts.ordersDir, "orders-dir", "", "Directory whose .csv files are all loaded")
	f.StringVarP(&opts.out, "out", "o", defaultOutput, `Output CSV ("-" for stdout)`)
	f.StringVar(&opts.preset, "preset", "", "Column preset: shopify or woocommerce (default: COLUMN_PRESET)")
	f.BoolVar(&opts.generateSKUs, "generate-skus", false, "Generate SKUs for lines without one")
	f.StringArrayVar(&opts.additions, "add", nil, "Add a line to an order as ORDER:SKU:QTY; repeatable")
	f.BoolVar(&opts.review, "review", false, "Print data-quality findings before exporting")
	f.BoolVar(&opts.strict, "strict", false, "With --review, fail on critical or warning findings")
	f.BoolVar(&opts.noHistory, "no-history", false, "Do not record the run even when DATABASE_URL is set")
	f.StringVar(&opts.emptySets, "empty-sets", "", "Empty set policy: passthrough or drop (default: DECODE_EMPTY_BUNDLE_POLICY)")
	f.BoolVar(&opts.expandTargets, "expand-targets", false, "Expand addition targets that are sets themselves")
	f.StringVar(&opts.encoding, "encoding", "", "Order file encoding (default: ORDERS_ENCODING)")
	f.StringVar(&opts.delimiter, "delimiter", "", "Order file delimiter (default: ORDERS_DELIMITER)")

	_ = cmd.MarkFlagRequired("master")
	cmd.MarkFlagsOneRequired("orders", "orders-dir")

	return cmd
}

// applyDecodeFlags overlays explicitly set flags on the configured decode settings.
func (a *app) applyDecodeFlags(cmd *cobra.Command, opts *runOptions) {
	d := &a.cfg.Decode
	if cmd.Flags().Changed("empty-sets") {
		d.EmptyBundlePolicy = opts.emptySets
	}
	if cmd.Flags().Changed("expand-targets") {
		d.ExpandTargets = opts.expandTargets
	}
	if cmd.Flags().Changed("encoding") {
		d.Encoding = opts.encoding
	}
	if cmd.Flags().Changed("delimiter") {
		d.Delimiter = opts.delimiter
	}
	if cmd.Flags().Changed("preset") {
		d.ColumnPreset = opts.preset
	}
}

func runDecode(ctx context.Context, a *app, opts runOptions, stdout, stderr io.Writer) error {
	manual, err := parseManualLines(opts.additions)
	if err != nil {
		return withCode(exitUsage, err)
	}

	wsOpts, err := workspace.OptionsFromConfig(a.cfg.Decode, history.OriginCLI)
	if err != nil {
		return withCode(exitUsage, err)
	}

	var recorder history.Recorder
	if a.cfg.Database.Enabled() && !opts.noHistory {
		pool, err := history.Open(ctx, a.cfg.Database)
		if err != nil {
			return withCode(exitDB, err)
		}
		defer pool.Close()
		if err := history.Migrate(ctx, pool); err != nil {
			return withCode(exitDB, err)
		}
		recorder = history.NewStore(pool)
	}

	ws := workspace.New(a.logger, nil, recorder, wsOpts)

	if err := loadMaster(ctx, ws, opts.master); err != nil {
		return withCode(exitValidation, err)
	}
	if err := loadOrders(ctx, ws, opts); err != nil {
		return withCode(exitValidation, err)
	}

	if opts.generateSKUs {
		changes, err := ws.PreviewIdentifiers()
		if err != nil {
			return err
		}
		for _, c := range changes {
			fmt.Fprintf(stderr, "generated sku %s for %q\n", c.NewSKU, c.Name)
		}
		if len(changes) > 0 {
			if _, err := ws.ConfirmIdentifiers(); err != nil {
				return err
			}
		}
	}

	for _, m := range manual {
		if err := ws.AddLine(m.orderID, m.sku, m.quantity); err != nil {
			return withCode(exitValidation, err)
		}
	}

	if opts.review {
		report, err := ws.Review()
		if err != nil {
			return err
		}
		printReview(stderr, report)
		if n := len(report.Critical) + len(report.Warning); opts.strict && n > 0 {
			return withCode(exitValidation, fmt.Errorf("review found %d issue(s)", n))
		}
	}

	res, err := export(ctx, ws, opts.out, stdout)
	if err != nil {
		return err
	}

	s := res.Summary
	fmt.Fprintf(stderr, "%d rows in, %d rows out (%d added), %d orders, %d unique skus, %d sets expanded\n",
		s.OriginalRows, s.ProcessedRows, s.AddedRows, s.UniqueOrders, s.UniqueSKUs, res.Stats.BundlesExpanded)
	return nil
}

func loadMaster(ctx context.Context, ws *workspace.Workspace, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = ws.LoadMaster(ctx, f, filepath.Base(path))
	return err
}

func loadOrders(ctx context.Context, ws *workspace.Workspace, opts runOptions) error {
	paths := append([]string(nil), opts.orders...)
	if opts.ordersDir != "" {
		found, err := csvio.CSVFiles(opts.ordersDir)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return errNoOrders
	}

	sources := make([]csvio.Source, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		sources = append(sources, csvio.Source{Name: filepath.Base(p), Reader: f})
	}

	_, err := ws.LoadOrders(ctx, sources, "")
	return err
}

// export writes the expanded orders to path, or stdout for "-". A partial
// file is removed when the export fails.
func export(ctx context.Context, ws *workspace.Workspace, path string, stdout io.Writer) (workspace.Result, error) {
	if path == "-" {
		return ws.Export(ctx, stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return workspace.Result{}, err
	}
	res, err := ws.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return workspace.Result{}, err
	}
	return res, nil
}

// parseManualLines reads ORDER:SKU:QTY values. The order id may itself
// contain colons; sku and quantity are taken from the right.
func parseManualLines(values []string) ([]manualLine, error) {
	out := make([]manualLine, 0, len(values))
	for _, v := range values {
		rest, qty, ok := cutLast(v)
		if !ok {
			return nil, fmt.Errorf("invalid --add %q: want ORDER:SKU:QTY", v)
		}
		order, sku, ok := cutLast(rest)
		order, sku = strings.TrimSpace(order), strings.TrimSpace(sku)
		if !ok || order == "" || sku == "" {
			return nil, fmt.Errorf("invalid --add %q: want ORDER:SKU:QTY", v)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid --add %q: quantity must be a positive integer", v)
		}
		out = append(out, manualLine{orderID: order, sku: sku, quantity: n})
	}
	return out, nil
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func printReview(w io.Writer, r core.ReviewReport) {
	if r.Clean() {
		fmt.Fprintln(w, "review: no issues found")
		return
	}
	for _, f := range r.Findings() {
		fmt.Fprintf(w, "review: [%s] %s %s", f.Severity, f.Code, f.Message)
		if len(f.SKUs) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(f.SKUs, ", "))
		}
		fmt.Fprintln(w)
	}
}
