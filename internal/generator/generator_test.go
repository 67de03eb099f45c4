package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p1nka/cbuae-dormancy/internal/domain"
	"github.com/p1nka/cbuae-dormancy/internal/dormancy"
	"github.com/p1nka/cbuae-dormancy/internal/schema"
)

func testConfig(dormantFraction float64) Config {
	return Config{
		NumAccounts:     300,
		DormantFraction: dormantFraction,
		MissingFraction: 0,
		AsOf:            time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Seed:            7,
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := testConfig(0.3)

	first, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	second, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateRespectsRowCount(t *testing.T) {
	dataset, err := New(testConfig(0.3)).Generate(context.Background())
	require.NoError(t, err)

	assert.Len(t, dataset.Rows, 300)
	assert.Equal(t, Header, dataset.Header)
	for _, row := range dataset.Rows {
		assert.Len(t, row, len(Header))
	}
}

func TestGenerateHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(0.3)).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneratedActiveDatasetHasNoDormantAccounts(t *testing.T) {
	cfg := testConfig(0)
	dataset, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	report := classify(t, dataset, cfg.AsOf)
	assert.Equal(t, 0, report.Summary.DormantCount)
	assert.Equal(t, 300, report.Summary.TotalRecords)
}

func TestGeneratedDormantDatasetFlagsAccounts(t *testing.T) {
	cfg := testConfig(1)
	dataset, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	report := classify(t, dataset, cfg.AsOf)
	assert.Greater(t, report.Summary.DormantCount, 0)
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	dataset, err := New(testConfig(0.3)).Generate(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "accounts.csv")
	require.NoError(t, WriteDataset(dataset, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	table, err := schema.ReadCSV(file)
	require.NoError(t, err)
	assert.Equal(t, Header, table.Columns)
	assert.Len(t, table.Rows, 300)
}

func classify(t *testing.T, dataset Dataset, asOf time.Time) domain.ScanReport {
	t.Helper()

	path := filepath.Join(t.TempDir(), "accounts.csv")
	require.NoError(t, WriteDataset(dataset, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	table, err := schema.ReadCSV(file)
	require.NoError(t, err)

	return dormancy.Classify(schema.Normalize(table), asOf)
}
