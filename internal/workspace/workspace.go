// Package workspace holds the state of one decoding session: the master
// catalogs, the loaded orders and any identifier preview waiting for
// confirmation. Both the web server and the CLI drive the engine through it.
//
// All methods are safe for concurrent use; the engine underneath is not, so
// every call holds the workspace lock for its full duration.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/setdecoder/internal/config"
	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/JonMunkholm/setdecoder/internal/csvio"
	"github.com/JonMunkholm/setdecoder/internal/history"
	"github.com/JonMunkholm/setdecoder/internal/logging"
	"github.com/JonMunkholm/setdecoder/internal/metrics"
	"github.com/JonMunkholm/setdecoder/internal/workbook"
	"github.com/google/uuid"
	"golang.org/x/text/encoding"
)

var (
	// ErrNoMaster is returned by Expand and Export before a master file is loaded.
	ErrNoMaster = errors.New("no master file loaded")
	// ErrNoPendingChanges is returned when confirming or cancelling without a preview.
	ErrNoPendingChanges = errors.New("no pending identifier changes")
	// ErrChangesPending is returned by AddLine while an identifier preview is open.
	ErrChangesPending = errors.New("identifier changes pending")
)

// Operation names used for metrics and logs.
const (
	opLoadMaster = "load_master"
	opLoadOrders = "load_orders"
	opExpand     = "expand"
	opExport     = "export"
)

// Options configures a Workspace.
type Options struct {
	EmptyBundles  core.EmptyBundlePolicy
	ExpandTargets bool

	// Preset is the column preset used when LoadOrders is given none.
	Preset    string
	Encoding  encoding.Encoding
	Delimiter rune

	// Origin tags recorded runs (history.OriginWeb or history.OriginCLI).
	Origin string
}

// MasterInfo describes a loaded master workbook.
type MasterInfo struct {
	Name         string   `json:"name"`
	Products     int      `json:"products"`
	Bundles      int      `json:"bundles"`
	EmptyBundles []string `json:"emptyBundles"`
	Rules        int      `json:"rules"`
	HasAdditions bool     `json:"hasAdditions"`
}

// OrdersInfo describes loaded order files.
type OrdersInfo struct {
	Files    []string           `json:"files"`
	Lines    int                `json:"lines"`
	Orders   int                `json:"orders"`
	Platform core.Platform      `json:"platform"`
	Mapping  core.MappingReport `json:"mapping"`
}

// Result is the outcome of Expand or Export.
type Result struct {
	Table   core.OrderTable     `json:"-"`
	Stats   core.ExpansionStats `json:"stats"`
	Summary core.Summary        `json:"summary"`
	// RunID is set by Export when the run was recorded.
	RunID uuid.UUID `json:"runId,omitempty"`
}

// Status is a snapshot of the workspace for dashboards.
type Status struct {
	MasterLoaded       bool     `json:"masterLoaded"`
	MasterName         string   `json:"masterName,omitempty"`
	Products           int      `json:"products"`
	Bundles            int      `json:"bundles"`
	Rules              int      `json:"rules"`
	OrdersLoaded       bool     `json:"ordersLoaded"`
	OrderFiles         []string `json:"orderFiles"`
	Lines              int      `json:"lines"`
	PendingIdentifiers int      `json:"pendingIdentifiers"`
	GeneratedSKUs      int      `json:"generatedSkus"`
	AddedLines         int      `json:"addedLines"`
	EmptyBundlePolicy  string   `json:"emptyBundlePolicy"`
	ExpandTargets      bool     `json:"expandTargets"`
	ColumnPreset       string   `json:"columnPreset"`
}

type pendingChanges struct {
	snapshot core.OrderTable
	changes  []core.IdentifierChange
}

// Workspace orchestrates loading, identifier generation, manual lines,
// expansion and export.
type Workspace struct {
	mu sync.Mutex

	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder history.Recorder
	opts     Options

	products *core.Catalog
	bundles  *core.BundleCatalog
	rules    *core.AdditionRuleTable
	engine   *core.Engine

	masterName   string
	masterLoaded bool
	orderFiles   []string
	original     core.OrderTable
	pending      *pendingChanges
	generated    []string
	added        int
}

// New creates an empty workspace. m and recorder may be nil.
func New(logger *slog.Logger, m *metrics.Metrics, recorder history.Recorder, opts Options) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Origin == "" {
		opts.Origin = history.OriginWeb
	}
	w := &Workspace{
		logger:   logger,
		metrics:  m,
		recorder: recorder,
		opts:     opts,
	}
	w.products = core.NewCatalog()
	w.bundles = core.NewBundleCatalog()
	w.rules = core.NewAdditionRuleTable()
	w.engine = w.newEngine()
	return w
}

func (w *Workspace) newEngine() *core.Engine {
	return core.NewEngine(w.products, w.bundles, w.rules,
		core.WithEmptyBundlePolicy(w.opts.EmptyBundles),
		core.WithTargetExpansion(w.opts.ExpandTargets),
	)
}

// observe records an operation's duration and outcome.
func (w *Workspace) observe(op string, start time.Time, err error) {
	w.metrics.ObserveOperation(op, time.Since(start), err)
}

// LoadMaster parses a master workbook and replaces the catalogs. On error the
// previous catalogs stay in place. Loaded orders are kept; an open
// identifier preview is rolled back.
func (w *Workspace) LoadMaster(ctx context.Context, r io.Reader, name string) (info MasterInfo, err error) {
	start := time.Now()
	defer func() { w.observe(opLoadMaster, start, err) }()

	if err := ctx.Err(); err != nil {
		return MasterInfo{}, err
	}

	m, err := workbook.Read(r)
	if err != nil {
		return MasterInfo{}, err
	}

	products := core.NewCatalog()
	bundles := core.NewBundleCatalog()
	rules := core.NewAdditionRuleTable()
	if err := m.LoadInto(products, bundles, rules); err != nil {
		return MasterInfo{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.rollbackPending()
	table, loadedErr := w.engine.Table()

	w.products, w.bundles, w.rules = products, bundles, rules
	w.engine = w.newEngine()
	if loadedErr == nil {
		w.engine.Load(table)
	}
	w.masterName = name
	w.masterLoaded = true

	info = MasterInfo{
		Name:         name,
		Products:     products.Len(),
		Bundles:      bundles.Len(),
		EmptyBundles: bundles.EmptyBundles(),
		Rules:        rules.Len(),
		HasAdditions: m.HasAdditions,
	}

	logging.Enrich(ctx, w.logger).Info("master loaded",
		"file", name,
		"products", info.Products,
		"sets", info.Bundles,
		"empty_sets", len(info.EmptyBundles),
		"rules", info.Rules,
	)
	return info, nil
}

// LoadOrders reads one or more order exports, applies the column preset
// (Options.Preset when preset is blank) and replaces the loaded orders.
// Generated identifiers and manual lines from earlier loads are discarded.
func (w *Workspace) LoadOrders(ctx context.Context, sources []csvio.Source, preset string) (info OrdersInfo, err error) {
	start := time.Now()
	defer func() { w.observe(opLoadOrders, start, err) }()

	if err := ctx.Err(); err != nil {
		return OrdersInfo{}, err
	}

	if preset == "" {
		preset = w.opts.Preset
	}
	mapping, err := core.Preset(preset)
	if err != nil {
		return OrdersInfo{}, err
	}

	rs, err := csvio.ReadAll(sources,
		csvio.WithEncoding(w.opts.Encoding),
		csvio.WithDelimiter(w.opts.Delimiter),
	)
	if err != nil {
		return OrdersInfo{}, err
	}

	platform := core.DetectPlatform(rs.Header)
	report := mapping.Validate(rs.Header)
	mapped, err := mapping.Apply(rs)
	if err != nil {
		return OrdersInfo{}, err
	}
	table, err := core.OrdersFromRecords(mapped)
	if err != nil {
		return OrdersInfo{}, err
	}

	files := make([]string, len(sources))
	for i, src := range sources {
		files[i] = src.Name
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.engine.Load(table)
	w.original = table.Clone()
	w.orderFiles = files
	w.pending = nil
	w.generated = nil
	w.added = 0

	info = OrdersInfo{
		Files:    files,
		Lines:    table.Len(),
		Orders:   len(table.OrderIDs()),
		Platform: platform,
		Mapping:  report,
	}

	logging.Enrich(ctx, w.logger).Info("orders loaded",
		"files", len(files),
		"lines", info.Lines,
		"orders", info.Orders,
		"platform", platform,
	)
	for _, warning := range report.Warnings {
		logging.Enrich(ctx, w.logger).Warn("column mapping", "warning", warning)
	}
	return info, nil
}

// PreviewIdentifiers fills empty skus from line names and keeps the previous
// table so the change can be cancelled. Calling it again while a preview is
// open returns the same changes. No change leaves nothing pending.
func (w *Workspace) PreviewIdentifiers() ([]core.IdentifierChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		return w.pending.changes, nil
	}

	snapshot, err := w.engine.Table()
	if err != nil {
		return nil, err
	}
	n, changes, err := w.engine.GenerateMissingIdentifiers()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []core.IdentifierChange{}, nil
	}

	w.pending = &pendingChanges{snapshot: snapshot, changes: changes}
	w.logger.Info("identifier preview", "changes", n)
	return changes, nil
}

// ConfirmIdentifiers keeps the previewed identifiers and returns how many
// lines were changed.
func (w *Workspace) ConfirmIdentifiers() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil {
		return 0, ErrNoPendingChanges
	}
	n := len(w.pending.changes)
	for _, c := range w.pending.changes {
		w.generated = append(w.generated, c.NewSKU)
	}
	w.pending = nil

	w.logger.Info("identifiers confirmed", "changes", n)
	return n, nil
}

// CancelIdentifiers restores the table as it was before the preview.
func (w *Workspace) CancelIdentifiers() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil {
		return ErrNoPendingChanges
	}
	w.rollbackPending()
	w.logger.Info("identifiers cancelled")
	return nil
}

// rollbackPending restores the preview snapshot, if any. Callers hold mu.
func (w *Workspace) rollbackPending() {
	if w.pending == nil {
		return
	}
	w.engine.Load(w.pending.snapshot)
	w.pending = nil
}

// AddLine appends a manual line to an existing order.
func (w *Workspace) AddLine(orderID, sku string, quantity int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		return ErrChangesPending
	}
	if err := w.engine.AddLine(orderID, sku, quantity); err != nil {
		return err
	}
	w.added++

	w.logger.Info("line added", "order", orderID, "sku", sku, "quantity", quantity)
	return nil
}

// Table returns a copy of the working order table.
func (w *Workspace) Table() (core.OrderTable, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Table()
}

// Expand runs the engine over the working table.
func (w *Workspace) Expand(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() { w.observe(opExpand, start, err) }()

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expandLocked(ctx)
}

func (w *Workspace) expandLocked(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !w.masterLoaded {
		return Result{}, ErrNoMaster
	}

	table, stats, err := w.engine.ExpandWithStats()
	if err != nil {
		return Result{}, err
	}
	w.metrics.ObserveExpansion(stats)

	return Result{
		Table:   table,
		Stats:   stats,
		Summary: core.Summarize(w.original, table),
	}, nil
}

// Export expands the working table, writes it as CSV to out and, when a
// recorder is configured, records the run. A failed recording is logged and
// does not fail the export.
func (w *Workspace) Export(ctx context.Context, out io.Writer) (res Result, err error) {
	start := time.Now()
	defer func() { w.observe(opExport, start, err) }()

	w.mu.Lock()
	defer w.mu.Unlock()

	res, err = w.expandLocked(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := csvio.Write(out, res.Table.Records()); err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}

	logger := logging.Enrich(ctx, w.logger)
	logger.Info("orders exported",
		"input_lines", res.Stats.InputLines,
		"output_lines", res.Stats.OutputLines,
		"bundles_expanded", res.Stats.BundlesExpanded,
		"additions_applied", res.Stats.AdditionsApplied,
	)

	if w.recorder == nil {
		return res, nil
	}
	run, recErr := w.recorder.Record(ctx, w.runLocked(res))
	if recErr != nil {
		logger.Warn("recording run failed", "error", recErr)
		return res, nil
	}
	res.RunID = run.ID
	return res, nil
}

func (w *Workspace) runLocked(res Result) history.Run {
	return history.Run{
		Origin:            w.opts.Origin,
		MasterFile:        w.masterName,
		OrderFiles:        append([]string(nil), w.orderFiles...),
		InputLines:        res.Stats.InputLines,
		OutputLines:       res.Stats.OutputLines,
		AddedLines:        res.Summary.AddedRows,
		UniqueOrders:      res.Summary.UniqueOrders,
		BundlesExpanded:   res.Stats.BundlesExpanded,
		AdditionsApplied:  res.Stats.AdditionsApplied,
		GeneratedSKUs:     append([]string(nil), w.generated...),
		EmptyBundlePolicy: w.opts.EmptyBundles.String(),
	}
}

// Review inspects the working table against the catalogs.
func (w *Workspace) Review() (core.ReviewReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	table, err := w.engine.Table()
	if err != nil {
		return core.ReviewReport{}, err
	}
	return core.Review(table, w.products, w.bundles, w.rules), nil
}

// Status returns a snapshot of what is loaded.
func (w *Workspace) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Status{
		MasterLoaded:      w.masterLoaded,
		MasterName:        w.masterName,
		Products:          w.products.Len(),
		Bundles:           w.bundles.Len(),
		Rules:             w.rules.Len(),
		OrdersLoaded:      w.engine.Loaded(),
		OrderFiles:        append([]string{}, w.orderFiles...),
		Lines:             w.engine.LineCount(),
		GeneratedSKUs:     len(w.generated),
		AddedLines:        w.added,
		EmptyBundlePolicy: w.opts.EmptyBundles.String(),
		ExpandTargets:     w.opts.ExpandTargets,
		ColumnPreset:      w.opts.Preset,
	}
	if w.pending != nil {
		s.PendingIdentifiers = len(w.pending.changes)
	}
	return s
}

// OptionsFromConfig builds workspace options from the decode settings.
func OptionsFromConfig(cfg config.DecodeConfig, origin string) (Options, error) {
	policy, ok := core.ParseEmptyBundlePolicy(cfg.EmptyBundlePolicy)
	if !ok {
		return Options{}, fmt.Errorf("unknown empty bundle policy %q", cfg.EmptyBundlePolicy)
	}
	enc, err := csvio.LookupEncoding(cfg.Encoding)
	if err != nil {
		return Options{}, err
	}
	return Options{
		EmptyBundles:  policy,
		ExpandTargets: cfg.ExpandTargets,
		Preset:        cfg.ColumnPreset,
		Encoding:      enc,
		Delimiter:     cfg.DelimiterRune(),
		Origin:        origin,
	}, nil
}
