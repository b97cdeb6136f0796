package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/japaniel/headliner/pkg/config"
	"github.com/japaniel/headliner/pkg/pipeline"
)

const progressEvery = 100

func main() {
	os.Exit(run())
}

func run() int {
	configFlag := flag.String("config", "", "Path to YAML config file")
	envFlag := flag.String("env", ".env", "Path to optional .env file")
	inputFlag := flag.String("input", "", "Input table (.csv, .tsv or .xlsx)")
	outputFlag := flag.String("output", "", "Output CSV path")
	modelFlag := flag.String("model", "", "Model id: 'en' (English, default), 'ipa' (Japanese) or a path to a kagome dictionary archive")
	workersFlag := flag.Int("workers", 0, "Number of rows annotated concurrently")
	topFlag := flag.Int("top", 0, "Number of top entities to report")
	flag.Parse()

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *envFlag != "" {
		if err := godotenv.Load(*envFlag); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Failed to load env file %s: %v", *envFlag, err)
			return 1
		}
	}

	cfg, err := config.LoadFile(*configFlag)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Printf("Invalid environment: %v", err)
		return 1
	}

	// Explicit flags win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = *inputFlag
		case "output":
			cfg.OutputPath = *outputFlag
		case "model":
			cfg.ModelID = *modelFlag
		case "workers":
			cfg.Workers = *workersFlag
		case "top":
			cfg.TopK = *topFlag
		}
	})

	runner := pipeline.New(cfg)
	runner.OnProgress = progress(os.Stdout, progressEvery)
	if _, err := runner.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// progress prints a line every n rows and once all rows are done. It may be
// called from several workers at once.
func progress(w io.Writer, n int) func(done, total int) {
	var mu sync.Mutex
	return func(done, total int) {
		if done%n != 0 && done != total {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "Annotated %d/%d rows\n", done, total)
	}
}
