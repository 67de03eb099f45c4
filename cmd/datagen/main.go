package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/p1nka/cbuae-dormancy/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		accounts     = flag.Int("accounts", cfg.NumAccounts, "number of accounts to generate")
		dormantShare = flag.Float64("dormant-share", cfg.DormantFraction, "share of accounts generated past the dormancy threshold")
		missingShare = flag.Float64("missing-share", cfg.MissingFraction, "share of rows with a missing activity date")
		asOf         = flag.String("as-of", "", "reference date as YYYY-MM-DD anchoring activity windows (defaults to today)")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output       = flag.String("output", "data/accounts.csv", "path of the CSV file to write")
		writeStdout  = flag.Bool("stdout", false, "write the dataset to stdout instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumAccounts:     *accounts,
		DormantFraction: clampProbability(*dormantShare),
		MissingFraction: clampProbability(*missingShare),
		Seed:            *seed,
	}
	if *asOf != "" {
		parsed, err := time.Parse(time.DateOnly, *asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid as-of date %q, expected YYYY-MM-DD\n", *asOf)
			os.Exit(2)
		}
		genCfg.AsOf = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		writer := csv.NewWriter(os.Stdout)
		if err := writer.Write(dataset.Header); err == nil {
			err = writer.WriteAll(dataset.Rows)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d accounts into %s\n", len(dataset.Rows), *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
