// Command cli reads a solve request from a JSON file and prints the
// resulting schedule.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/schedulrx/engine/internal/config"
	"github.com/schedulrx/engine/internal/logging"
	"github.com/schedulrx/engine/pkg/cache"
	"github.com/schedulrx/engine/pkg/dto"
	"github.com/schedulrx/engine/pkg/selector"
	"github.com/schedulrx/engine/pkg/solver"
)

var validSolvers = []string{"auto", "backtracking", "cp-sat", "local-search"}

func main() {
	filePtr := flag.String("file", "", "Path to the JSON request file")
	outFilePtr := flag.String("out", "", "Path to the file where the response will be written; if empty, written to stdout")
	solverPtr := flag.String("solver", "", "Override the solver named in the request file (auto, backtracking, cp-sat, local-search)")
	flag.Parse()

	filePath := *filePtr
	if filePath == "" {
		log.Fatal("an input file must be specified with -file")
	}
	if *solverPtr != "" && !slices.Contains(validSolvers, *solverPtr) {
		log.Fatalf("%q is not a valid solver", *solverPtr)
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("cannot read input file: %v", err)
	}

	req, err := dto.DecodeRequest(raw)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	choice, err := req.SolverChoice()
	if err != nil {
		log.Fatalf("invalid solver in request: %v", err)
	}
	if *solverPtr != "" {
		choice = *solverPtr
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

	var c cache.Cache
	redisCache, err := cache.NewRedis(cfg.Cache, zapLog)
	if err != nil {
		zapLog.Warn("redis cache unavailable, falling back to an in-process cache")
		c = cache.NewMemory()
	} else {
		c = redisCache
	}

	sel := selector.New(c, zapLog)
	sel.BacktrackThreshold = cfg.SelectorBacktrackThreshold
	sel.CacheTTL = cfg.CacheTTL
	sel.CPSATTimeLimit = cfg.CPSATTimeLimit
	sel.BacktrackTimeLimit = cfg.BacktrackTimeLimit
	sel.TabuTenure = cfg.TabuTenure
	sel.TabuMaxIterations = cfg.TabuMaxIterations

	solveReq := solver.Request{
		Problem:         req.ToProblem(),
		InitialSchedule: req.ToSchedule(),
		QuantumMinutes:  cfg.QuantumMinutes,
	}
	if req.TimeLimitMs != nil {
		solveReq.TimeLimit = time.Duration(*req.TimeLimitMs) * time.Millisecond
	}

	resp, err := sel.Solve(context.Background(), selector.Choice(choice), solveReq)
	if err != nil {
		log.Fatalf("solve failed: %v", err)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		log.Fatalf("cannot marshal response: %v", err)
	}

	if *outFilePtr == "" {
		fmt.Println(string(out))
		return
	}
	if err := os.WriteFile(*outFilePtr, out, 0644); err != nil {
		log.Fatalf("cannot write output file: %v", err)
	}
}
