package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"samplemap/atlas"
)

type cliOptions struct {
	configPath  string
	inputPath   string
	weightsPath string
	outputPath  string
	outputDir   string
	stdout      bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("samplemap-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("samplemap-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.inputPath, "input", "", "Directory of analyzer JSON documents, or a single JSON file")
	flag.StringVar(&opts.weightsPath, "weights", "", "Learned-weights JSON file merged into the configured weights")
	flag.StringVar(&opts.outputPath, "output", "", "CSV file to write the map (default uses --output-dir/map_*.csv)")
	flag.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where map CSVs are written when --output is omitted")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print a cluster summary to STDOUT")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --input DIR [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.weightsPath = strings.TrimSpace(opts.weightsPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)

	if opts.inputPath == "" {
		flag.Usage()
		return opts, errors.New("missing required --input path")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg, err := atlas.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.weightsPath != "" {
		merged, err := atlas.ImportLearnedWeights(opts.weightsPath, cfg.Weights)
		if err != nil {
			return fmt.Errorf("import weights: %w", err)
		}
		cfg.Weights = merged
	}

	records, err := atlas.LoadRecords(opts.inputPath)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	if len(records) == 0 {
		return errors.New("input contains no analyzer documents")
	}

	matrix := atlas.BuildMatrix(records, cfg.Weights, cfg.Normalization, cfg.Tags)
	if matrix.Empty() {
		return errors.New("no record has any usable feature values")
	}
	coords, err := atlas.NewAxisPairProjector().Project(context.Background(), matrix, cfg.Projection)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}
	result := atlas.Assign(coords, cfg.Cluster.Method, cfg.Cluster.Params)
	points := atlas.MergePoints(records, matrix.ValidIndices, coords, result.Labels)

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if err := writeMapCSV(outputPath, points); err != nil {
		return err
	}
	fmt.Printf("map written to %s (%d samples, %d clusters)\n", outputPath, len(points), result.Count)

	if opts.stdout {
		printSummary(points, result)
	}
	return nil
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("map_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeMapCSV(path string, points []atlas.SamplePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create map file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := []string{"id", "name", "x", "y", "cluster", "tags"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range points {
		tags := ""
		if p.Record != nil {
			tags = strings.Join(p.Record.Tags, " ")
		}
		row := []string{
			p.ID,
			p.Name,
			fmt.Sprintf("%.4f", p.X),
			fmt.Sprintf("%.4f", p.Y),
			fmt.Sprintf("%d", p.Cluster.Sentinel()),
			tags,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush map: %w", err)
	}
	return nil
}

func printSummary(points []atlas.SamplePoint, result atlas.Result) {
	sizes := atlas.SortedClusterSizes(result)
	fmt.Println()
	fmt.Println("==== cluster summary ====")
	for i, size := range sizes {
		fmt.Printf("cluster %d: %d samples\n", i+1, size)
	}
	noise := 0
	for _, p := range points {
		if p.Cluster.IsNoise() {
			noise++
		}
	}
	if noise > 0 {
		fmt.Printf("unclustered: %d samples\n", noise)
	}
}
