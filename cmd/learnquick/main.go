package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"learnquick/internal/app"
	"learnquick/internal/config"
	"learnquick/internal/logging"
	"learnquick/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, logPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/learnquick/config.yaml if not provided)")
	flag.StringVar(&logPath, "log", filepath.Join(os.TempDir(), "learnquick.log"), "Log file (the terminal belongs to the TUI)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: learnquick [--config=config.yaml] notes.pdf [chapter.txt ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()
	logger, err := logging.New(cfg.Log, logFile)
	if err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, err := app.NewStudyService(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble pipeline: %v", err)
	}
	fmt.Println("Processing study material...")
	stats, err := svc.IngestFiles(ctx, inputs)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	header := fmt.Sprintf("%d characters, %d chunks. %s", stats.CharCount, stats.ChunkCount, stats.Preview)
	m := tui.New(ctx, svc, header)
	if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil {
		log.Fatal(err)
	}
}
