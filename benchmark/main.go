// Package main provides a performance benchmarking tool for the blameledger CLI.
// It generates synthetic mined-history streams of increasing size, ingests each
// into a fresh SQLite ledger, then re-ingests it several times. The first run is
// reported as cold and the re-ingestions, which skip every known fact, are
// averaged as warm. Results are written to a CSV file for documentation.
//
// Prerequisites:
// - blameledger binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated streams and ledger files
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the cold time and warm average of one stream size.
type BenchmarkResult struct {
	Name     string
	Commits  int
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir   string
	Timeout   time.Duration
	BatchSize int
	WarmRuns  int
	Sizes     map[string]int // stream name -> commits
	Order     []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:   os.Args[1],
		Timeout:   5 * time.Minute,
		BatchSize: 500,
		WarmRuns:  3,
		Sizes:     map[string]int{"small": 200, "medium": 2000, "large": 20000},
		Order:     []string{"small", "medium", "large"},
	}

	if _, err := exec.LookPath("blameledger"); err != nil {
		fmt.Println("Prerequisites check failed: blameledger binary not found in PATH")
		os.Exit(1)
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}
	printSummary(results)
}

// runBenchmarks generates and ingests every configured stream size.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult
	fmt.Printf("Starting benchmark: %d streams, %v timeout, batch size %d, %d warm runs\n",
		len(config.Order), config.Timeout, config.BatchSize, config.WarmRuns)

	for _, name := range config.Order {
		commits := config.Sizes[name]
		streamPath := filepath.Join(config.WorkDir, name+".jsonl")
		if err := generateStream(streamPath, name, commits); err != nil {
			fmt.Printf("  Failed to generate %s: %v\n", name, err)
			continue
		}

		dbPath := filepath.Join(config.WorkDir, name+".db")
		_ = os.Remove(dbPath)

		fmt.Printf("Benchmarking %s (%d commits)\n", name, commits)
		times := runIngest(config, streamPath, dbPath, 1+config.WarmRuns)

		result := BenchmarkResult{Name: name, Commits: commits, ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
		if len(times) > 0 {
			result.ColdTime = fmt.Sprintf("%.3fs", times[0])
		}
		if len(times) > 1 {
			var sum float64
			for _, t := range times[1:] {
				sum += t
			}
			result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
		}
		fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
		results = append(results, result)
	}
	return results
}

// runIngest ingests the stream numRuns times into the same ledger and returns successful run times.
func runIngest(config BenchmarkConfig, streamPath, dbPath string, numRuns int) []float64 {
	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		cmd := exec.CommandContext(ctx, "blameledger", "ingest",
			"--db-connect", dbPath,
			"--batch-size", fmt.Sprint(config.BatchSize),
			"--log-level", "warn",
			"--output", "json",
			streamPath)
		output, err := cmd.CombinedOutput()
		cancel()
		if err != nil {
			fmt.Printf("  Run failed: %v\n%s\n", err, output)
			continue
		}
		times = append(times, time.Since(start).Seconds())
	}
	return times
}

type author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// generateStream writes a synthetic stream of commits, each touching a few
// files, followed by one blame snapshot per file.
func generateStream(path, project string, commits int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	authors := []author{{"Ada", "ada@example.com"}, {"Grace", "grace@example.com"}, {"Linus", "linus@example.com"}}
	files := max(commits/10, 1)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := enc.Encode(map[string]any{"project": map[string]string{"name": "bench-" + project, "root_path": "/bench/" + project}}); err != nil {
		return err
	}

	lines := make(map[int][][2]any, files) // file -> [hash, line] pairs
	for i := range commits {
		a := authors[i%len(authors)]
		hash := fmt.Sprintf("%040x", i+1)
		touched := []int{i % files}
		if other := (i * 7) % files; other != touched[0] {
			touched = append(touched, other)
		}
		var paths []string
		for _, p := range touched {
			paths = append(paths, fmt.Sprintf("pkg/file%d.go", p))
			lines[p] = append(lines[p], [2]any{hash, len(lines[p]) + 1})
		}
		unit := map[string]any{"commit": map[string]any{
			"hash":         hash,
			"author":       a,
			"timestamp":    base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			"project_size": 1000 + i*10,
			"stability":    0.5,
			"paths":        paths,
			"changes": []map[string]any{{
				"author": a, "changes_count": 2, "changes_size": 40, "lines_added": 2,
			}},
		}}
		if err := enc.Encode(unit); err != nil {
			return err
		}
	}

	for p := range files {
		byAuthor := make(map[int][][2]any)
		for j, pair := range lines[p] {
			byAuthor[j%len(authors)] = append(byAuthor[j%len(authors)], pair)
		}
		var owners []map[string]any
		for idx, pairs := range byAuthor {
			owners = append(owners, map[string]any{
				"name": authors[idx].Name, "email": authors[idx].Email,
				"lines": pairs, "line_size": len(pairs) * 24,
			})
		}
		unit := map[string]any{"blame": map[string]any{
			"path": fmt.Sprintf("pkg/file%d.go", p), "file_hash": fmt.Sprintf("%08x", p), "authors": owners,
		}}
		if err := enc.Encode(unit); err != nil {
			return err
		}
	}
	return w.Flush()
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/blameledger_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"stream", "commits", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Name, fmt.Sprint(result.Commits), result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s (%6d commits): Cold: %s, Warm: %s\n", result.Name, result.Commits, result.ColdTime, result.WarmTime)
	}
}
