package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBatchScannerScansAllFiles(t *testing.T) {
	svc, st := newTestService()
	dir := t.TempDir()

	paths := []string{
		writeDataset(t, dir, "one.csv", sampleCSV),
		writeDataset(t, dir, "two.csv", "Account_ID,Account_Type,Last_Transaction_Date\nB1,Savings,2017-03-01\n"),
	}

	scanner := NewBatchScanner(svc, 2)
	scans, err := scanner.ScanFiles(context.Background(), paths, nil)
	require.NoError(t, err)

	require.Len(t, scans, 2)
	assert.Equal(t, paths[0], scans[0].Path, "results follow input order")
	assert.Equal(t, paths[1], scans[1].Path)
	assert.Equal(t, 2, scans[0].Result.Report.Summary.DormantCount)
	assert.Equal(t, 1, scans[1].Result.Report.Summary.DormantCount)

	list, err := st.ListScans(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total, "each file persists as its own scan")
}

func TestBatchScannerCollectsPerFileErrors(t *testing.T) {
	svc, _ := newTestService()
	dir := t.TempDir()

	good := writeDataset(t, dir, "good.csv", sampleCSV)
	empty := writeDataset(t, dir, "empty.csv", "")
	missing := filepath.Join(dir, "missing.csv")

	scanner := NewBatchScanner(svc, 2)
	scans, err := scanner.ScanFiles(context.Background(), []string{good, empty, missing}, nil)

	require.Len(t, scans, 1, "the healthy file still scans")
	assert.Equal(t, good, scans[0].Path)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Len(t, taskErr.Errors, 2)
}

func TestBatchScannerEmptyInput(t *testing.T) {
	svc, _ := newTestService()
	scanner := NewBatchScanner(svc, 0)

	scans, err := scanner.ScanFiles(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, scans)
}
