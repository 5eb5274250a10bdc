// Package store manages the on-disk layout of the harvester: the raw
// snapshot cache, the structured JSON outputs, and the frontier file.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kennygrant/sanitize"

	"meritage-scraper/models"
)

// Store persists snapshots and community records under a single
// output directory, html/ and json/ kept separate.
type Store struct {
	htmlDir string
	jsonDir string
}

// New creates the html/ and json/ subdirectories under dir.
func New(dir string) (*Store, error) {
	s := &Store{
		htmlDir: filepath.Join(dir, "html"),
		jsonDir: filepath.Join(dir, "json"),
	}
	for _, d := range []string{s.htmlDir, s.jsonDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", d, err)
		}
	}
	return s, nil
}

// OutputKey derives the filesystem-safe record key from the final path
// segment of a detail-page URL.
func OutputKey(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	path := trimmed
	if u, err := url.Parse(trimmed); err == nil {
		path = u.Path
	}
	segment := path[strings.LastIndex(path, "/")+1:]
	if segment == "" {
		return "index"
	}
	return sanitize.BaseName(segment)
}

// RecordPath returns the JSON output path for a record key.
func (s *Store) RecordPath(key string) string {
	return filepath.Join(s.jsonDir, "meritage_"+key+".json")
}

// RecordExists reports whether a record is already materialized.
func (s *Store) RecordExists(key string) bool {
	_, err := os.Stat(s.RecordPath(key))
	return err == nil
}

// SaveRecord writes the community record as an indented JSON document.
func (s *Store) SaveRecord(key string, community *models.Community) error {
	data, err := json.MarshalIndent(community, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	path := s.RecordPath(key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write record %s: %w", path, err)
	}
	return nil
}

// SnapshotPath returns the html cache path for a snapshot name.
func (s *Store) SnapshotPath(name string) string {
	return filepath.Join(s.htmlDir, name+".html")
}

// SaveSnapshot writes rendered markup to the html cache.
func (s *Store) SaveSnapshot(path, html string) error {
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// RemoveSnapshot deletes a transient snapshot. A missing file is fine;
// any other failure is logged and non-fatal.
func (s *Store) RemoveSnapshot(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Failed to remove snapshot %s: %v\n", path, err)
	}
}

// ResolveFrontier returns the first existing path from the ordered
// candidate list.
func ResolveFrontier(candidates []string) (string, error) {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("frontier file not found in any of %d candidate locations", len(candidates))
}

// LoadFrontier reads the frontier file: a JSON array of absolute
// detail-page URLs.
func LoadFrontier(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frontier file: %w", err)
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("failed to parse frontier file: %w", err)
	}
	return urls, nil
}

// SaveFrontier writes the discovered URLs as a JSON array.
func SaveFrontier(path string, urls []string) error {
	data, err := json.MarshalIndent(urls, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal frontier: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write frontier file %s: %w", path, err)
	}
	return nil
}
