package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/limaJavier/slotplanner/internal/config"
	"github.com/limaJavier/slotplanner/internal/export"
	"github.com/limaJavier/slotplanner/internal/logger"
	"github.com/limaJavier/slotplanner/pkg/model"
	"github.com/limaJavier/slotplanner/pkg/solver"
)

// Exit codes
const (
	exitSolved     = 10
	exitInvalid    = 15
	exitInfeasible = 20
)

var validFormats = []string{"json", "csv", "pdf"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	// Define arguments
	algorithmNames := strings.Join(lo.Map(solver.Algorithms(), func(algorithm solver.Algorithm, _ int) string { return fmt.Sprintf("%q", algorithm) }), ", ")
	algorithmPtr := flag.String("algorithm", "", fmt.Sprintf("Algorithm used to build the timetable. Allowed values are: %v. Defaults to the request's method, then to %q", algorithmNames, cfg.Solver.DefaultAlgorithm))
	filePathPtr := flag.String("file", "", "Path to the input file")
	establishedPtr := flag.String("established", "", "Path to a CSV file of allocations added to the request's established ones")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	formatPtr := flag.String("format", "json", "Output format. Allowed values are: \"json\", \"csv\" and \"pdf\"")
	checkPtr := flag.Bool("check", false, "Check the request's allocations as a complete solution instead of solving")
	seedPtr := flag.Int64("seed", cfg.Solver.RandomSeed, "Seed of the random source; 0 seeds from the clock")
	flag.Parse()
	filePath := *filePathPtr
	format := strings.ToLower(*formatPtr)

	// Validate arguments
	if filePath == "" {
		log.Fatal("an input file must be specified")
	} else if !slices.Contains(validFormats, format) {
		log.Fatalf("%v is not a valid format", format)
	}

	// Extract input
	request, err := model.InputFromJson(filePath, cfg.ParsePolicy())
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}
	if *establishedPtr != "" {
		if err := addEstablished(request.Problem, *establishedPtr); err != nil {
			log.Fatalf("cannot read established allocations: %v", err)
		}
	}

	if *checkPtr {
		os.Exit(check(request.Problem))
	}

	method := lo.CoalesceOrEmpty(*algorithmPtr, request.Method, cfg.Solver.DefaultAlgorithm)
	algorithm, err := solver.ParseAlgorithm(strings.ToLower(method))
	if err != nil {
		log.Fatal(err)
	}

	options := []solver.Option{solver.WithLogger(logr)}
	if *seedPtr != 0 {
		options = append(options, solver.WithRand(rand.New(rand.NewSource(*seedPtr))))
	}

	// Build timetable
	outcome, err := solver.Solve(request.Problem, algorithm, options...)
	if err != nil {
		var violation *solver.InvariantViolationError
		if errors.As(err, &violation) {
			logr.Error("solution verification failed", zap.Error(err))
			os.Exit(exitInvalid)
		}
		log.Fatalf("an error occurred during timetable construction: %v", err)
	}

	if !outcome.Success {
		for _, issue := range outcome.Issues {
			fmt.Fprintln(os.Stderr, issue)
		}
		if format == "json" {
			writeOutput(*outFilePathPtr, lo.Must(json.Marshal(outcome)))
		}
		os.Exit(exitInfeasible)
	}

	// Build output from solution
	output, err := render(format, request.Problem, outcome)
	if err != nil {
		log.Fatalf("an error occurred while building output: %v", err)
	}
	writeOutput(*outFilePathPtr, output)

	os.Exit(exitSolved)
}

func addEstablished(problem *model.Problem, file string) error {
	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()

	allocations, err := export.ReadAllocations(in)
	if err != nil {
		return err
	}
	for _, allocation := range allocations {
		problem.AddAllocation(allocation)
	}
	return nil
}

func check(problem *model.Problem) int {
	issues := problem.Check(model.Full)
	for _, issue := range issues {
		fmt.Println(issue)
	}
	if len(issues) > 0 {
		return exitInfeasible
	}
	fmt.Println("Solution is valid")
	return exitSolved
}

func render(format string, problem *model.Problem, outcome solver.Outcome) ([]byte, error) {
	buffer := &bytes.Buffer{}
	var err error
	switch format {
	case "csv":
		err = export.WriteCSV(buffer, export.Rows(problem, outcome.Solution))
	case "pdf":
		err = export.WritePDF(buffer, "Timetable", export.Rows(problem, outcome.Solution))
	default:
		err = json.NewEncoder(buffer).Encode(outcome)
	}
	return buffer.Bytes(), err
}

// Verify outfile is empty, if so then write the results to the Standard Output
func writeOutput(outFile string, output []byte) {
	var err error
	if outFile == "" {
		_, err = io.Copy(os.Stdout, bytes.NewReader(output))
	} else {
		err = os.WriteFile(outFile, output, 0666)
	}
	if err != nil {
		log.Fatalf("an error occurred while writing the output: %v", err)
	}
}
