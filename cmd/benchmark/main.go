package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/limaJavier/slotplanner/pkg/model"
	"github.com/limaJavier/slotplanner/pkg/solver"
)

const MB float32 = 1024

type ResultType int

const (
	solved ResultType = iota
	unsatisfiable
	invalid
)

var resultTypes = map[ResultType]string{
	solved:        "solved",
	unsatisfiable: "unsatisfiable",
	invalid:       "invalid",
}

type TestMetadata struct {
	Name        string
	Satisfiable bool
	Groups      int
	Teachers    int
	Rooms       int
	Clusters    int
	Allocations int
}

// BenchmarkResult is one row of the results file
type BenchmarkResult struct {
	Algorithm     string  `csv:"Algorithm"`
	Test          string  `csv:"Test"`
	Satisfiable   bool    `csv:"Satisfiable"`
	Groups        int     `csv:"Groups"`
	Teachers      int     `csv:"Teachers"`
	Rooms         int     `csv:"Rooms"`
	Clusters      int     `csv:"Clusters"`
	Allocations   int     `csv:"Allocations"`
	Run           int     `csv:"Run"`
	Duration      int64   `csv:"Duration(ms)"`
	Memory        float32 `csv:"Memory(MB)"`
	CpuPercentage int64   `csv:"CPU(%)"`
	Result        string  `csv:"Result"`
}

func main() {
	executablePathPtr := flag.String("exec", "../../bin/slotplanner", "Path to the CLI executable")
	testDirectoryPtr := flag.String("tests", "../../test/requests", "Directory holding the satisfiable/ and unsatisfiable/ request folders")
	runsPtr := flag.Int("runs", 3, "Runs per test and algorithm")
	outPtr := flag.String("out", "benchmark_results.csv", "Path to the results file")
	flag.Parse()

	tests := getTests(*testDirectoryPtr)
	algorithms := solver.Algorithms()
	results := make([]BenchmarkResult, 0, len(tests)*len(algorithms)*(*runsPtr))

	for _, test := range tests {
		for _, algorithm := range algorithms {
			for run := 1; run <= *runsPtr; run++ {
				fmt.Printf("Benchmarking test \"%v\" with algorithm \"%v\" (run %v)\n", test.Name, algorithm, run)

				duration, maxMemory, cpuPercentage, result := measure(*executablePathPtr, algorithm, test.Name)

				results = append(results, BenchmarkResult{
					Algorithm:     algorithm.String(),
					Test:          test.Name,
					Satisfiable:   test.Satisfiable,
					Groups:        test.Groups,
					Teachers:      test.Teachers,
					Rooms:         test.Rooms,
					Clusters:      test.Clusters,
					Allocations:   test.Allocations,
					Run:           run,
					Duration:      duration,
					Memory:        maxMemory,
					CpuPercentage: cpuPercentage,
					Result:        resultTypes[result],
				})
			}
		}
	}

	if err := toCsv(*outPtr, results); err != nil {
		log.Fatalf("cannot write results: %v", err)
	}
}

func getTests(testDirectory string) []TestMetadata {
	tests := make([]TestMetadata, 0)
	for _, tuple := range lo.Zip2([]string{"satisfiable", "unsatisfiable"}, []bool{true, false}) {
		directory, satisfiable := filepath.Join(testDirectory, tuple.A), tuple.B
		testFiles, err := os.ReadDir(directory)
		if err != nil {
			log.Fatalf("cannot read directory: %v", err)
		}

		for _, file := range testFiles {
			filename := filepath.Join(directory, file.Name())
			request, err := model.InputFromJson(filename, model.DefaultParsePolicy())
			if err != nil {
				log.Fatalf("cannot parse input file: %v", err)
			}

			tests = append(tests, TestMetadata{
				Name:        filename,
				Satisfiable: satisfiable,
				Groups:      len(request.Problem.Groups),
				Teachers:    len(request.Problem.Teachers),
				Rooms:       len(request.Problem.Rooms),
				Clusters:    len(request.Problem.Clusters),
				Allocations: len(request.Problem.Allocations),
			})
		}
	}

	return tests
}

func measure(executablePath string, algorithm solver.Algorithm, testFile string) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType) {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath, "-algorithm", algorithm.String(), "-file", testFile, "-out", os.DevNull)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	switch cmd.ProcessState.ExitCode() {
	case 10:
		result = solved
	case 20:
		result = unsatisfiable
	case 15:
		result = invalid
	default:
		log.Fatalf("an error occurred during the execution at test \"%v\" using algorithm \"%v\": %v\n", testFile, algorithm, stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, result
}

func toCsv(path string, results []BenchmarkResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	return gocsv.MarshalFile(&results, file)
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

// parseDuration converts "h:mm:ss.cc" or "m:ss.cc" into milliseconds
func parseDuration(durationStr string) int64 {
	parts := strings.Split(strings.TrimSpace(durationStr), ":")
	secondsParts := strings.Split(parts[len(parts)-1], ".")
	seconds := lo.Must(strconv.Atoi(secondsParts[0]))
	hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))

	var minutes, hours int
	switch len(parts) {
	case 3:
		hours = lo.Must(strconv.Atoi(parts[0]))
		minutes = lo.Must(strconv.Atoi(parts[1]))
	case 2:
		minutes = lo.Must(strconv.Atoi(parts[0]))
	default:
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.TrimSpace(strings.Split(line, ":")[1])
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / MB
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.TrimSpace(strings.Split(line, ":")[1])
	percentageStr = strings.TrimSuffix(percentageStr, "%")
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
