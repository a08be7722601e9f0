// Command packbed packs one or more planting beds described in a JSON
// document and writes the computed placements as JSON.
//
// Input document:
//
//	{"beds": [{"name": "...", "bed": {"width": 48, "height": 48, "shape": "rectangle"},
//	           "groups": [...], "seed": 42}, ...]}
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/brianruggieri/garden-craft-sub000/internal/cache"
	"github.com/brianruggieri/garden-craft-sub000/internal/config"
	"github.com/brianruggieri/garden-craft-sub000/internal/errorreporting"
	"github.com/brianruggieri/garden-craft-sub000/internal/layout"
	"github.com/brianruggieri/garden-craft-sub000/internal/logger"
	"github.com/brianruggieri/garden-craft-sub000/internal/tracing"
)

type inputDoc struct {
	Beds []layout.BedRequest `json:"beds"`
}

type outputBed struct {
	Name   string      `json:"name"`
	Result interface{} `json:"result"`
}

func main() {
	inputPath := flag.String("input", "-", "path to the JSON bed document, or - for stdin")
	outputPath := flag.String("output", "-", "path for the JSON results, or - for stdout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found (falling back to system env)")
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	shutdown, err := tracing.Init("packbed")
	if err != nil {
		logger.Error("tracing init failed", "error", err)
		os.Exit(1)
	}
	defer shutdown(context.Background())

	if err := errorreporting.Init(); err != nil {
		logger.Error("error reporting init failed", "error", err)
		os.Exit(1)
	}
	defer errorreporting.Flush(2 * time.Second)

	if err := run(cfg, *inputPath, *outputPath); err != nil {
		logger.Error("packbed failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, inputPath, outputPath string) error {
	doc, err := readInput(inputPath)
	if err != nil {
		return err
	}

	var resultCache cache.Cache
	if cfg.CacheEnabled {
		lru, err := cache.NewLRU(int64(cfg.CacheMaxSizeMB), int64(cfg.CacheMaxEntries),
			time.Duration(cfg.CacheTTLMin)*time.Minute)
		if err != nil {
			return fmt.Errorf("cache init: %w", err)
		}
		defer lru.Close()
		resultCache = lru
	}

	svc := layout.NewService(resultCache)
	results, err := svc.PackAll(context.Background(), doc.Beds)
	if err != nil {
		return err
	}

	out := make([]outputBed, len(results))
	for i, res := range results {
		out[i] = outputBed{Name: doc.Beds[i].Name, Result: res}
	}
	return writeOutput(outputPath, out)
}

func readInput(path string) (*inputDoc, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	var doc inputDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if len(doc.Beds) == 0 {
		return nil, fmt.Errorf("input document contains no beds")
	}
	return &doc, nil
}

func writeOutput(path string, out []outputBed) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
