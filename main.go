package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"meritage-scraper/config"
	"meritage-scraper/db"
	"meritage-scraper/discover"
	"meritage-scraper/fetcher"
	"meritage-scraper/notify"
	"meritage-scraper/pipeline"
	"meritage-scraper/sheets"
	"meritage-scraper/store"
)

func main() {
	// Parse command line arguments
	urlFlag := flag.String("url", "", "Process a single community URL")
	batch := flag.Bool("batch", false, "Process all URLs from the frontier file")
	discoverFlag := flag.Bool("discover", false, "Discover community links and write the frontier file")
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	seed := flag.Int64("seed", 0, "Random seed for the image fallback selection (0 = time-based)")
	spreadsheetURL := flag.String("spreadsheet", "", "Google Sheets URL or ID for the summary export (optional)")
	credentialsPath := flag.String("credentials", "", "Path to Google service account credentials JSON file (or use GOOGLE_SHEETS_CREDENTIALS env var)")
	flag.Parse()

	// Load .env if present; env vars configure the optional sinks
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := loadConfig(*configPath)

	st, err := store.New(cfg.Output.Dir)
	if err != nil {
		log.Fatalf("Failed to prepare output directories: %v\n", err)
	}

	if *discoverFlag {
		runDiscovery(cfg, st)
		return
	}

	// Select the URLs for this run
	var urls []string
	switch {
	case *urlFlag != "":
		urls = []string{*urlFlag}
	case *batch:
		urls = loadFrontier(cfg)
	default:
		log.Printf("No URL given, using default: %s\n", cfg.Site.DefaultURL)
		urls = []string{cfg.Site.DefaultURL}
	}

	seedValue := *seed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedValue))

	var sinks []pipeline.Sink
	if db.Configured() {
		database, err := db.NewDB()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v\n", err)
		}
		defer database.Close()
		sinks = append(sinks, database)
	}

	interval := time.Duration(cfg.Throttle.IntervalSeconds) * time.Second
	pipe := pipeline.New(st, cfg.Site.BaseURL, sessionFactory(cfg), rng, interval, sinks...)

	summary := pipe.Run(urls)
	log.Printf("Run finished: %d processed, %d skipped, %d failed\n",
		summary.Processed, summary.Skipped, summary.Failed)

	exportSummary(summary, *spreadsheetURL, *credentialsPath)
}

// loadConfig loads the configuration, falling back to defaults
func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("Warning: Could not load config file (%v), using defaults\n", err)
		return config.GetDefaultConfig()
	}
	return cfg
}

// sessionFactory returns a factory opening one rendering session per
// top-level fetch, using the engine selected in the config.
func sessionFactory(cfg *config.Config) pipeline.SessionFactory {
	pageSettle := time.Duration(cfg.Fetcher.PageSettleSeconds) * time.Second
	detailSettle := time.Duration(cfg.Fetcher.DetailSettleSeconds) * time.Second

	if cfg.Fetcher.Engine == "colly" {
		return func() (fetcher.Session, error) {
			return fetcher.NewCollyFetcher(), nil
		}
	}
	return func() (fetcher.Session, error) {
		return fetcher.NewRodFetcher(cfg.Fetcher.Headless, pageSettle, detailSettle)
	}
}

// runDiscovery performs two-level link discovery inside a single
// rendering session and writes the frontier file.
func runDiscovery(cfg *config.Config, st *store.Store) {
	factory := sessionFactory(cfg)
	session, err := factory()
	if err != nil {
		log.Fatalf("Failed to create rendering session: %v\n", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Warning: Failed to close rendering session: %v\n", err)
		}
	}()

	d := discover.New(session, st, cfg.Site.BaseURL, cfg.Site.StartURL)
	if err := d.Run(cfg.Frontier.File); err != nil {
		log.Fatalf("Discovery failed: %v\n", err)
	}
}

// loadFrontier resolves the frontier file from the configured
// candidate paths plus the executable directory, and reads it. An
// unreadable or empty frontier is fatal in batch mode.
func loadFrontier(cfg *config.Config) []string {
	candidates := append([]string{}, cfg.Frontier.Candidates...)
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), cfg.Frontier.File))
	}

	path, err := store.ResolveFrontier(candidates)
	if err != nil {
		log.Fatalf("Could not find frontier file: %v\n", err)
	}
	log.Printf("Found frontier file at: %s\n", path)

	urls, err := store.LoadFrontier(path)
	if err != nil {
		log.Fatalf("Could not read frontier file: %v\n", err)
	}
	if len(urls) == 0 {
		log.Fatalf("No URLs found in frontier file %s\n", path)
	}
	log.Printf("Found %d URLs to process\n", len(urls))
	return urls
}

// exportSummary pushes the run results to the optional Sheets and
// Telegram sinks.
func exportSummary(summary *pipeline.Summary, spreadsheetURL, credentialsPath string) {
	if spreadsheetURL != "" && len(summary.Communities) > 0 {
		writer, err := sheets.NewWriter(sheets.ExtractSpreadsheetID(spreadsheetURL), credentialsPath)
		if err != nil {
			log.Printf("Warning: Could not create Sheets writer: %v\n", err)
		} else if err := writer.AppendCommunities(summary.Communities); err != nil {
			log.Printf("Warning: Could not export to Google Sheets: %v\n", err)
		}
	}

	notifier, err := notify.NewFromEnv()
	if err != nil {
		log.Printf("Warning: Could not create Telegram notifier: %v\n", err)
		return
	}
	if notifier != nil {
		if err := notifier.SendRunSummary(summary); err != nil {
			log.Printf("Warning: %v\n", err)
		}
	}
}
