package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/samirrijal/tripfootprint/internal/adapters/postgres"
	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/core/footprint"
	"github.com/samirrijal/tripfootprint/internal/core/ports"
	"github.com/samirrijal/tripfootprint/internal/core/usecases"
	"github.com/samirrijal/tripfootprint/internal/pkg/config"
	"github.com/samirrijal/tripfootprint/internal/pkg/logging"
)

type options struct {
	mode          string
	accommodation string
	source        string
	record        bool
	concurrency   int
}

func main() {
	var opts options
	cfgFile := flag.String("config", "", "config file (default: ./config.yaml or ./configs/config.yaml)")
	flag.StringVar(&opts.mode, "mode", "", "selected transport mode (default from config)")
	flag.StringVar(&opts.accommodation, "accommodation", "", "accommodation type, e.g. hotel")
	flag.StringVar(&opts.source, "source", "cli", "source recorded with -record")
	flag.BoolVar(&opts.record, "record", false, "store the footprints in the database")
	flag.IntVar(&opts.concurrency, "concurrency", 4, "files estimated in parallel")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: estimate [flags] [trip.json ...]   (reads stdin without files)")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.LoadFile("tripfootprint-cli", *cfgFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("", cfg.Log.Level, "text")

	ctx := context.Background()

	estimator, err := footprint.New(cfg.Emissions.Table())
	if err != nil {
		log.Fatalf("emission factors: %v", err)
	}

	var repo ports.FootprintRepository
	if opts.record {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewFootprintRepo(db)
	}
	svc := usecases.NewFootprintService(estimator, repo, nil, nil)

	files := flag.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}

	failed := run(ctx, svc, files, opts, os.Stdout)
	if failed > 0 {
		slog.Error("some itineraries could not be estimated", "failed", failed, "total", len(files))
		os.Exit(1)
	}
}

// result is one output line. With a single input only the payload is printed.
type result struct {
	File      string                  `json:"file"`
	Report    *domain.EmissionsReport `json:"report,omitempty"`
	Footprint *domain.FootprintRecord `json:"footprint,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// run estimates every file with bounded concurrency and writes the results in
// input order. It returns the number of failures.
func run(ctx context.Context, svc *usecases.FootprintService, files []string, opts options, out io.Writer) int {
	results := make([]result, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, max(opts.concurrency, 1))

	for i, file := range files {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = estimateFile(ctx, svc, file, opts)
		}(i, file)
	}
	wg.Wait()

	enc := json.NewEncoder(out)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		if len(results) == 1 && r.Error == "" {
			enc.SetIndent("", "  ")
			if r.Footprint != nil {
				_ = enc.Encode(r.Footprint)
			} else {
				_ = enc.Encode(r.Report)
			}
			continue
		}
		_ = enc.Encode(r)
	}
	return failed
}

func estimateFile(ctx context.Context, svc *usecases.FootprintService, file string, opts options) result {
	res := result{File: file}

	data, err := readInput(file)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	req, err := parseDocument(data)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if opts.mode != "" {
		req.SelectedMode = opts.mode
	}
	if opts.accommodation != "" {
		req.AccommodationType = opts.accommodation
	}

	if opts.record {
		req.Source = opts.source
		rec, err := svc.Record(ctx, req)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Footprint = rec
		return res
	}

	report, err := svc.EstimateRequest(ctx, req)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Report = report
	return res
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

// parseDocument accepts a request body ({"itinerary": ...} or
// {"tripData": ...}) or a bare itinerary ({"days": [...]}).
func parseDocument(data []byte) (*domain.FootprintRequest, error) {
	var req domain.FootprintRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if _, ok := req.ResolveItinerary(); ok {
		return &req, nil
	}

	var bare struct {
		Days *[]domain.Day `json:"days"`
	}
	if err := json.Unmarshal(data, &bare); err == nil && bare.Days != nil {
		req.Itinerary = &domain.Itinerary{Days: *bare.Days}
		return &req, nil
	}
	return nil, errors.New("document has no itinerary, tripData or days")
}
