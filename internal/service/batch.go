package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// TaskError accumulates the per-file errors of a batch scan.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BatchScanner runs dormancy scans over many dataset files using a worker
// pool. Each file becomes its own persisted scan.
type BatchScanner struct {
	service *ComplianceService
	workers int
}

// NewBatchScanner creates a BatchScanner with the provided concurrency.
func NewBatchScanner(service *ComplianceService, workers int) *BatchScanner {
	if workers <= 0 {
		workers = 4
	}
	return &BatchScanner{
		service: service,
		workers: workers,
	}
}

// FileScan is the outcome of scanning one dataset file.
type FileScan struct {
	Path   string
	Result ScanResult
}

// ScanFiles scans every path concurrently and returns the successful scans
// in input order. Per-file failures are collected into a TaskError; a
// cancelled context aborts the whole batch.
func (bs *BatchScanner) ScanFiles(ctx context.Context, paths []string, asOf *time.Time) ([]FileScan, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	results := make([]*FileScan, len(paths))
	err := bs.run(ctx, len(paths), func(idx int) error {
		path := paths[idx]
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		result, err := bs.service.RunScan(ctx, f, asOf)
		if err != nil {
			return fmt.Errorf("scan %s: %w", path, err)
		}
		results[idx] = &FileScan{Path: path, Result: result}
		return nil
	})

	scans := make([]FileScan, 0, len(paths))
	for _, r := range results {
		if r != nil {
			scans = append(scans, *r)
		}
	}
	return scans, err
}

func (bs *BatchScanner) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bs.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
