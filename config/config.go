package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the harvester configuration
type Config struct {
	Site struct {
		// BaseURL is the origin relative links are resolved against
		BaseURL string `yaml:"base_url"`
		// StartURL is the top-level listing page used by discovery
		StartURL string `yaml:"start_url"`
		// DefaultURL is processed when no mode flag is given
		DefaultURL string `yaml:"default_url"`
	} `yaml:"site"`

	Fetcher struct {
		// Engine selects the snapshot source: "rod" or "colly"
		Engine   string `yaml:"engine"`
		Headless bool   `yaml:"headless"`
		// PageSettleSeconds is the grace delay after load for top-level pages
		PageSettleSeconds int `yaml:"page_settle_seconds"`
		// DetailSettleSeconds is the grace delay for enrichment sub-fetches
		DetailSettleSeconds int `yaml:"detail_settle_seconds"`
	} `yaml:"fetcher"`

	Output struct {
		// Dir is the root of the html/ and json/ caches
		Dir string `yaml:"dir"`
	} `yaml:"output"`

	Frontier struct {
		// File is the frontier file name written by discovery
		File string `yaml:"file"`
		// Candidates are the paths tried in order when reading the frontier
		Candidates []string `yaml:"candidates"`
	} `yaml:"frontier"`

	Throttle struct {
		// IntervalSeconds is the minimum delay between frontier items
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"throttle"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Site.BaseURL = "https://www.meritagehomes.com"
	cfg.Site.StartURL = "https://www.meritagehomes.com/homes"
	cfg.Site.DefaultURL = "https://www.meritagehomes.com/state/al/huntsville/madison-preserve-the-estate-series"
	cfg.Fetcher.Engine = "rod"
	cfg.Fetcher.Headless = true
	cfg.Fetcher.PageSettleSeconds = 5
	cfg.Fetcher.DetailSettleSeconds = 3
	cfg.Output.Dir = "data/meritagehomes"
	cfg.Frontier.File = "meritage_links.json"
	cfg.Frontier.Candidates = []string{
		"meritage_links.json",
		"data/meritage_links.json",
		"../meritage_links.json",
	}
	cfg.Throttle.IntervalSeconds = 2
	return cfg
}
