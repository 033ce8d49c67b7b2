// Command benchmark runs every solver backend against a single request
// file and prints a comparison table, mirroring the teacher pack's
// per-backend benchmark harness but driving in-process solvers instead of
// shelling out to a compiled binary per backend.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/schedulrx/engine/internal/config"
	"github.com/schedulrx/engine/internal/logging"
	"github.com/schedulrx/engine/pkg/cache"
	"github.com/schedulrx/engine/pkg/dto"
	"github.com/schedulrx/engine/pkg/selector"
	"github.com/schedulrx/engine/pkg/solver"
)

func main() {
	filePtr := flag.String("file", "", "Path to the JSON request file")
	timeLimitPtr := flag.Int("time-limit-ms", 0, "Override every backend's time limit in milliseconds")
	flag.Parse()

	if *filePtr == "" {
		log.Fatal("an input file must be specified with -file")
	}

	raw, err := os.ReadFile(*filePtr)
	if err != nil {
		log.Fatalf("cannot read input file: %v", err)
	}

	req, err := dto.DecodeRequest(raw)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	zapLog, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer zapLog.Sync()

	sel := selector.New(cache.NewMemory(), zapLog)
	sel.BacktrackThreshold = cfg.SelectorBacktrackThreshold
	sel.CPSATTimeLimit = cfg.CPSATTimeLimit
	sel.BacktrackTimeLimit = cfg.BacktrackTimeLimit
	sel.TabuTenure = cfg.TabuTenure
	sel.TabuMaxIterations = cfg.TabuMaxIterations

	solveReq := solver.Request{
		Problem:         req.ToProblem(),
		InitialSchedule: req.ToSchedule(),
		QuantumMinutes:  cfg.QuantumMinutes,
	}
	if *timeLimitPtr > 0 {
		solveReq.TimeLimit = time.Duration(*timeLimitPtr) * time.Millisecond
	}

	results := sel.Benchmark(context.Background(), solveReq)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	_ = w.Write([]string{"solver", "time_ms", "score", "outcome"})
	for _, name := range names {
		r := results[name]
		outcome := "solved"
		switch {
		case r.Infeasible:
			outcome = "infeasible"
		case r.Err != nil:
			outcome = fmt.Sprintf("error: %v", r.Err)
		}
		_ = w.Write([]string{
			name,
			fmt.Sprintf("%d", r.TimeMs),
			fmt.Sprintf("%.4f", r.Score),
			outcome,
		})
	}
}
