package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"example.com/ecomdata/internal/config"
	"example.com/ecomdata/internal/dataset"
	"example.com/ecomdata/internal/exchange"
	"example.com/ecomdata/internal/generator"
	"example.com/ecomdata/internal/query"
	"example.com/ecomdata/internal/sqliteutil"
	"example.com/ecomdata/internal/store"
)

// Stage names, used as log fields and metric labels.
const (
	StageGenerate = "generate"
	StageIngest   = "ingest"
	StageQueries  = "run_queries"
	StageReport   = "report"
)

const (
	kpiRows      = 10
	workbookName = "pipeline_report.xlsx"
)

// QueryOutcome is the row count one catalog query produced.
type QueryOutcome struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// ReportSummary describes what the report stage produced.
type ReportSummary struct {
	Workbook string   `json:"workbook"`
	Warnings []string `json:"warnings,omitempty"`
}

// Runner executes the pipeline stages against one configuration. Rendered
// tables go to out; progress goes to the logger.
type Runner struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *Metrics
	catalog *query.Catalog
	out     io.Writer
}

func NewRunner(cfg config.Config, logger *zap.Logger, metrics *Metrics, out io.Writer) *Runner {
	return &Runner{
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "pipeline")),
		metrics: metrics,
		catalog: query.NewCatalog(cfg.SQLDir),
		out:     out,
	}
}

func (r *Runner) Catalog() *query.Catalog {
	return r.catalog
}

// Generate builds a dataset from the configured seed and writes one exchange
// file per entity.
func (r *Runner) Generate(ctx context.Context) (map[string]int, error) {
	return track(r, StageGenerate, func() (map[string]int, error) {
		g, err := generator.New(r.cfg)
		if err != nil {
			return nil, err
		}
		ds, err := g.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate dataset: %w", err)
		}
		counts, err := exchange.WriteDataset(r.cfg.DataDir, ds)
		if err != nil {
			return nil, err
		}
		for _, entity := range dataset.Entities {
			r.metrics.AddRowsWritten(entity, counts[entity])
			r.logger.Info("wrote exchange file",
				zap.String("entity", entity),
				zap.String("path", exchange.Path(r.cfg.DataDir, entity)),
				zap.Int("rows", counts[entity]),
			)
		}
		return counts, nil
	})
}

// Ingest rebuilds the store from the exchange files: every file must exist,
// the previous store is deleted, the schema is recreated and all rows are
// loaded in one transaction. A failed load removes the store so later stages
// report it as missing.
func (r *Runner) Ingest(ctx context.Context) (map[string]int64, error) {
	return track(r, StageIngest, func() (map[string]int64, error) {
		if err := exchange.RequireAll(r.cfg.DataDir); err != nil {
			return nil, err
		}
		if err := sqliteutil.Remove(r.cfg.DBPath); err != nil {
			return nil, err
		}

		counts, err := r.rebuild(ctx)
		if err != nil {
			if rmErr := sqliteutil.Remove(r.cfg.DBPath); rmErr != nil {
				r.logger.Warn("remove failed store", zap.Error(rmErr))
			}
			return nil, err
		}
		for _, table := range dataset.Entities {
			r.metrics.SetRowsLoaded(table, counts[table])
			r.logger.Info("loaded table", zap.String("table", table), zap.Int64("rows", counts[table]))
		}
		return counts, nil
	})
}

func (r *Runner) rebuild(ctx context.Context) (map[string]int64, error) {
	db, err := sqliteutil.Open(r.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	s := store.New(db)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	loaded, err := s.Load(ctx, r.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("load exchange files: %w", err)
	}
	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, err
	}
	for table, n := range loaded {
		if counts[table] != int64(n) {
			return nil, fmt.Errorf("%s: loaded %d rows but table holds %d", table, n, counts[table])
		}
	}
	return counts, nil
}

// RunQueries executes every catalog query read-only and renders each result.
// A missing query file fails the stage before anything runs.
func (r *Runner) RunQueries(ctx context.Context) ([]QueryOutcome, error) {
	return track(r, StageQueries, func() ([]QueryOutcome, error) {
		s, closeStore, err := r.openStore()
		if err != nil {
			return nil, err
		}
		defer closeStore()

		queries := make([]query.Query, 0, len(r.catalog.Names()))
		for _, name := range r.catalog.Names() {
			q, err := r.catalog.Load(name)
			if err != nil {
				return nil, err
			}
			queries = append(queries, q)
		}

		outcomes := make([]QueryOutcome, 0, len(queries))
		for _, q := range queries {
			res, err := r.run(ctx, s, q)
			if err != nil {
				return nil, err
			}
			if err := r.section(q.Name, res); err != nil {
				return nil, err
			}
			outcomes = append(outcomes, QueryOutcome{Name: q.Name, Rows: len(res.Rows)})
		}
		return outcomes, nil
	})
}

// Report renders the dataset summary, table counts and KPI snapshots and
// exports them as a workbook. It refuses to write anything without a store.
// Missing exchange or query files only produce warnings.
func (r *Runner) Report(ctx context.Context) (ReportSummary, error) {
	return track(r, StageReport, func() (ReportSummary, error) {
		s, closeStore, err := r.openStore()
		if err != nil {
			return ReportSummary{}, err
		}
		defer closeStore()

		var summary ReportSummary
		warn := func(msg string, fields ...zap.Field) {
			r.logger.Warn(msg, fields...)
			summary.Warnings = append(summary.Warnings, msg)
		}

		files, missing, err := exchange.Summarize(r.cfg.DataDir)
		if err != nil {
			return ReportSummary{}, err
		}
		for _, path := range missing {
			warn("exchange file missing: "+path, zap.String("path", path))
		}
		datasets := query.Result{Columns: []string{"dataset", "rows", "columns", "sample_columns"}}
		for _, f := range files {
			datasets.Rows = append(datasets.Rows, []string{f.Dataset, strconv.Itoa(f.Rows), strconv.Itoa(f.Columns), f.SampleColumns})
		}

		counts, err := s.Counts(ctx)
		if err != nil {
			return ReportSummary{}, err
		}
		tables := query.Result{Columns: []string{"table", "rows"}}
		for _, table := range dataset.Entities {
			tables.Rows = append(tables.Rows, []string{table, strconv.FormatInt(counts[table], 10)})
		}

		sheets := []query.Sheet{
			{Name: "datasets", Result: datasets},
			{Name: "table_counts", Result: tables},
		}
		for _, name := range r.catalog.KPIs() {
			q, err := r.catalog.Load(name)
			if errors.Is(err, query.ErrQueryMissing) {
				warn("query file missing: "+r.catalog.Path(name), zap.String("query", name))
				continue
			}
			if err != nil {
				return ReportSummary{}, err
			}
			res, err := r.run(ctx, s, q)
			if err != nil {
				return ReportSummary{}, err
			}
			sheets = append(sheets, query.Sheet{Name: name, Result: res.Head(kpiRows)})
		}

		for _, sh := range sheets {
			if err := r.section(sh.Name, sh.Result); err != nil {
				return ReportSummary{}, err
			}
		}

		summary.Workbook = filepath.Join(r.cfg.ReportDir, workbookName)
		if err := query.WriteWorkbook(summary.Workbook, sheets); err != nil {
			return ReportSummary{}, err
		}
		r.logger.Info("report written", zap.String("workbook", summary.Workbook), zap.Int("warnings", len(summary.Warnings)))
		return summary, nil
	})
}

// openStore opens the existing store read-only or fails with ErrStoreMissing.
func (r *Runner) openStore() (*store.Store, func(), error) {
	ok, err := sqliteutil.Exists(r.cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", store.ErrStoreMissing, r.cfg.DBPath)
	}
	db, err := sqliteutil.OpenReadOnly(r.cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store.New(db), func() { db.Close() }, nil
}

func (r *Runner) run(ctx context.Context, s *store.Store, q query.Query) (query.Result, error) {
	start := time.Now()
	res, err := query.Run(ctx, s.DB(), q.SQL)
	r.metrics.ObserveQuery(q.Name, time.Since(start))
	if err != nil {
		return query.Result{}, fmt.Errorf("query %s: %w", q.Name, err)
	}
	if res.Empty() {
		r.logger.Warn("query returned no rows", zap.String("query", q.Name))
	}
	return res, nil
}

func (r *Runner) section(title string, res query.Result) error {
	if _, err := fmt.Fprintf(r.out, "\n## %s\n\n", title); err != nil {
		return fmt.Errorf("write section: %w", err)
	}
	return query.Render(r.out, res)
}

func track[T any](r *Runner, stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	r.logger.Info("stage started", zap.String("stage", stage))
	out, err := fn()
	if err != nil {
		r.metrics.IncStageFailure(stage)
		r.logger.Error("stage failed", zap.String("stage", stage), zap.Error(err))
		return out, err
	}
	r.logger.Info("stage finished", zap.String("stage", stage), zap.Duration("elapsed", time.Since(start)))
	return out, nil
}
