package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"meritage-scraper/models"
)

// Writer exports community summaries to Google Sheets
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewWriter creates a new Google Sheets writer. Credentials come from
// the given file or the GOOGLE_SHEETS_CREDENTIALS environment variable.
func NewWriter(spreadsheetID string, credentialsPath string) (*Writer, error) {
	ctx := context.Background()

	var credsJSON []byte
	var err error

	if credentialsPath != "" {
		credsJSON, err = os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		credsJSON = []byte(credsEnv)
	}

	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// AppendCommunities appends one summary row per community after the
// last used row, writing a header row first when the sheet is empty.
func (w *Writer) AppendCommunities(communities []*models.Community) error {
	if len(communities) == 0 {
		log.Println("No communities to append")
		return nil
	}

	resp, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, "Sheet1!A:A").Do()
	if err != nil {
		return fmt.Errorf("failed to read existing data: %w", err)
	}

	var values [][]interface{}
	if len(resp.Values) == 0 {
		values = append(values, []interface{}{
			"Name", "URL", "Price From", "Address", "Plans", "Move-In Ready", "Extracted At",
		})
	}

	for _, c := range communities {
		values = append(values, []interface{}{
			deref(c.Name),
			c.URL,
			deref(c.PriceFrom),
			deref(c.Address),
			len(c.HomePlans),
			len(c.HomeSites),
			c.Timestamp,
		})
	}

	nextRow := len(resp.Values) + 1
	valueRange := &sheets.ValueRange{Values: values}

	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, fmt.Sprintf("Sheet1!A%d", nextRow), valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheets: %w", err)
	}

	log.Printf("Successfully wrote %d communities to Google Sheets\n", len(communities))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google
// Sheets URL, or returns the input unchanged when it is already an ID.
func ExtractSpreadsheetID(urlOrID string) string {
	re := regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	if m := re.FindStringSubmatch(urlOrID); m != nil {
		return m[1]
	}
	return urlOrID
}
