package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"zephyr/pkg"
)

var (
	benchFiles     int
	benchWorkers   int
	benchDirectIO  bool
	benchFileBytes int
)

func init() {
	cmd := &cobra.Command{
		Use:   "bench <dir>",
		Short: "Benchmark many small reads against a directory of files",
		Long: `bench writes --files fixed-size files into dir (if they are not
already there), reads all of them back through the engine in one batch,
and reports achieved IOPS and throughput.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(args[0])
		},
	}
	cmd.Flags().IntVar(&benchFiles, "files", 1000, "number of files to read")
	cmd.Flags().IntVar(&benchWorkers, "workers", 0, "worker count (0 = engine default)")
	cmd.Flags().BoolVar(&benchDirectIO, "direct-io", false, "enable O_DIRECT")
	cmd.Flags().IntVar(&benchFileBytes, "file-size", 4096, "size in bytes of each generated file")
	rootCmd.AddCommand(cmd)
}

func runBench(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("zephyrctl: %w", err)
	}

	paths, err := ensureBenchFiles(dir, benchFiles, benchFileBytes)
	if err != nil {
		return err
	}

	opts, err := loadOptions(configPath)
	if err != nil {
		return err
	}
	if benchWorkers > 0 {
		opts = append(opts, pkg.WithWorkers(benchWorkers))
	}
	if benchDirectIO {
		opts = append(opts, pkg.WithDirectIO(512))
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	eng, err := pkg.Open(log, opts...)
	if err != nil {
		return fmt.Errorf("zephyrctl: starting engine: %w", err)
	}
	defer eng.Close()

	ops := make([]pkg.Operation, len(paths))
	for i, p := range paths {
		ops[i] = pkg.Operation{ID: uint64(i), GroupID: 0, Kind: pkg.OpGet, Path: p, Range: pkg.ByteRange{Start: 0, End: int64(benchFileBytes)}}
	}

	start := time.Now()
	if err := eng.Submit(ops); err != nil {
		return fmt.Errorf("zephyrctl: submit: %w", err)
	}

	var totalBytes int64
	var failures int
	for range ops {
		c := <-eng.Completions()
		if c.Err != nil {
			failures++
			continue
		}
		totalBytes += int64(c.View.Len())
		c.View.Release()
	}
	elapsed := time.Since(start)

	printBenchReport(len(ops), failures, totalBytes, elapsed)
	return nil
}

// ensureBenchFiles writes n files of the given size into dir, named
// bench-0 through bench-(n-1), skipping any that already exist with the
// right size.
func ensureBenchFiles(dir string, n, size int) ([]string, error) {
	paths := make([]string, n)
	buf := make([]byte, size)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("bench-%d", i))
		paths[i] = path
		if st, err := os.Stat(path); err == nil && st.Size() == int64(size) {
			continue
		}
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return nil, fmt.Errorf("zephyrctl: writing %s: %w", path, err)
		}
	}
	return paths, nil
}

func printBenchReport(n, failures int, totalBytes int64, elapsed time.Duration) {
	p := message.NewPrinter(language.English)
	iops := float64(n) / elapsed.Seconds()
	mbps := float64(totalBytes) / elapsed.Seconds() / (1 << 20)

	p.Printf("operations: %d (%d failed)\n", n, failures)
	p.Printf("elapsed:    %s\n", elapsed)
	p.Printf("throughput: %.1f MiB/s\n", mbps)
	p.Printf("iops:       %.0f\n", iops)
}
