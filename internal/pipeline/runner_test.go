package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/ecomdata/internal/config"
	"example.com/ecomdata/internal/dataset"
	"example.com/ecomdata/internal/exchange"
	"example.com/ecomdata/internal/query"
	"example.com/ecomdata/internal/sqliteutil"
	"example.com/ecomdata/internal/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.NumUsers = 30
	cfg.NumProducts = 12
	cfg.NumOrders = 60
	cfg.DataDir = filepath.Join(root, "data")
	cfg.DBPath = filepath.Join(root, "db", "ecom.db")
	cfg.ReportDir = filepath.Join(root, "reports")
	cfg.SQLDir = "../../sql"
	return cfg
}

type fixture struct {
	runner  *Runner
	metrics *Metrics
	out     *bytes.Buffer
	cfg     config.Config
}

func newFixture(t *testing.T, cfg config.Config) fixture {
	t.Helper()
	out := &bytes.Buffer{}
	metrics := NewMetrics(prometheus.NewRegistry())
	return fixture{
		runner:  NewRunner(cfg, zaptest.NewLogger(t), metrics, out),
		metrics: metrics,
		out:     out,
		cfg:     cfg,
	}
}

func TestGenerateWritesEveryEntity(t *testing.T) {
	f := newFixture(t, testConfig(t))
	files, err := f.runner.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 30, files[dataset.Users])
	assert.Equal(t, 12, files[dataset.Products])
	assert.Equal(t, 60, files[dataset.Orders])
	assert.Equal(t, 60, files[dataset.Payments])
	require.NoError(t, exchange.RequireAll(f.cfg.DataDir))
	assert.Equal(t, float64(60), testutil.ToFloat64(f.metrics.rowsWritten.WithLabelValues(dataset.Orders)))
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(t))
	files, err := f.runner.Generate(ctx)
	require.NoError(t, err)

	first, err := f.runner.Ingest(ctx)
	require.NoError(t, err)
	second, err := f.runner.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for entity, n := range files {
		assert.EqualValues(t, n, second[entity], entity)
	}
	assert.Equal(t, float64(files[dataset.OrderItems]), testutil.ToFloat64(f.metrics.rowsLoaded.WithLabelValues(dataset.OrderItems)))
}

func TestIngestFailsFastOnMissingFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(t))
	_, err := f.runner.Generate(ctx)
	require.NoError(t, err)
	_, err = f.runner.Ingest(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(exchange.Path(f.cfg.DataDir, dataset.Payments)))
	_, err = f.runner.Ingest(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.ErrMissingFile))

	// the previous store is untouched when inputs are incomplete
	ok, err := sqliteutil.Exists(f.cfg.DBPath)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.stageFailures.WithLabelValues(StageIngest)))
}

func TestIngestRemovesStoreAfterFailedLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(t))
	_, err := f.runner.Generate(ctx)
	require.NoError(t, err)

	path := exchange.Path(f.cfg.DataDir, dataset.Users)
	header, rows, err := exchange.ReadFile(path)
	require.NoError(t, err)
	rows[2][3] = rows[1][3]
	require.NoError(t, exchange.WriteFile(path, header, rows))

	_, err = f.runner.Ingest(ctx)
	require.Error(t, err)

	ok, err := sqliteutil.Exists(f.cfg.DBPath)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.runner.RunQueries(ctx)
	assert.True(t, errors.Is(err, store.ErrStoreMissing))
}

func TestRunQueriesRendersEveryCatalogQuery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(t))
	_, err := f.runner.Generate(ctx)
	require.NoError(t, err)
	_, err = f.runner.Ingest(ctx)
	require.NoError(t, err)

	outcomes, err := f.runner.RunQueries(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	for i, name := range f.runner.Catalog().Names() {
		assert.Equal(t, name, outcomes[i].Name)
		assert.Positive(t, outcomes[i].Rows, name)
		assert.Contains(t, f.out.String(), "## "+name)
	}
	assert.Equal(t, 4, testutil.CollectAndCount(f.metrics.queryDuration))
}

func TestRunQueriesRequiresStore(t *testing.T) {
	f := newFixture(t, testConfig(t))
	_, err := f.runner.RunQueries(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrStoreMissing))
	assert.Contains(t, err.Error(), "run ingest-data first")
}

func TestRunQueriesMissingSQLIsFatal(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	sqlDir := t.TempDir()
	body, err := os.ReadFile(filepath.Join(cfg.SQLDir, query.TotalRevenuePerUser+".sql"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, query.TotalRevenuePerUser+".sql"), body, 0o644))
	cfg.SQLDir = sqlDir

	f := newFixture(t, cfg)
	_, err = f.runner.Generate(ctx)
	require.NoError(t, err)
	_, err = f.runner.Ingest(ctx)
	require.NoError(t, err)

	_, err = f.runner.RunQueries(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, query.ErrQueryMissing))
	assert.Empty(t, f.out.String())
}

func TestReportWithoutStoreWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(t))
	_, err := f.runner.Generate(ctx)
	require.NoError(t, err)

	_, err = f.runner.Report(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrStoreMissing))
	assert.Empty(t, f.out.String())
	_, err = os.Stat(f.cfg.ReportDir)
	assert.True(t, os.IsNotExist(err))
}

func TestReportWarnsOnMissingInputs(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	f := newFixture(t, cfg)
	_, err := f.runner.Generate(ctx)
	require.NoError(t, err)
	_, err = f.runner.Ingest(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(exchange.Path(cfg.DataDir, dataset.OrderItems)))
	sqlDir := t.TempDir()
	body, err := os.ReadFile(filepath.Join(cfg.SQLDir, query.TotalRevenuePerUser+".sql"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, query.TotalRevenuePerUser+".sql"), body, 0o644))
	cfg.SQLDir = sqlDir

	f = newFixture(t, cfg)
	summary, err := f.runner.Report(ctx)
	require.NoError(t, err)
	assert.Len(t, summary.Warnings, 2)
	assert.FileExists(t, summary.Workbook)

	out := f.out.String()
	assert.Contains(t, out, "## datasets")
	assert.Contains(t, out, "## table_counts")
	assert.Contains(t, out, "## "+query.TotalRevenuePerUser)
	assert.NotContains(t, out, "## "+query.TopSellingProducts)
}

func TestReportLimitsKPIRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig(t))
	_, err := f.runner.Generate(ctx)
	require.NoError(t, err)
	_, err = f.runner.Ingest(ctx)
	require.NoError(t, err)

	summary, err := f.runner.Report(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary.Warnings)

	var section bytes.Buffer
	lines := bytes.Split(f.out.Bytes(), []byte("\n"))
	in := false
	for _, line := range lines {
		if bytes.HasPrefix(line, []byte("## ")) {
			in = string(line) == "## "+query.TotalRevenuePerUser
			continue
		}
		if in && bytes.HasPrefix(line, []byte("|")) {
			section.Write(line)
			section.WriteByte('\n')
		}
	}
	// header and separator plus the snapshot rows
	assert.Equal(t, kpiRows+2, bytes.Count(section.Bytes(), []byte("\n")))
}
