// Command seed-fixtures loads a fixture list from a JSON file and
// creates each match through the HTTP API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Default configuration constants.
const (
	defaultTimeout     = 10 * time.Second
	defaultSeedTimeout = 2 * time.Minute
)

type fixture struct {
	HomeTeam    string `json:"homeTeam"`
	AwayTeam    string `json:"awayTeam"`
	Competition string `json:"competition"`
	Date        string `json:"date"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		input   = flag.String("file", "fixtures.json", "JSON file with the fixtures to create")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultSeedTimeout)
	defer cancel()

	if err := run(ctx, *baseURL, *input, *timeout); err != nil {
		os.Stderr.WriteString("seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, baseURL, input string, timeout time.Duration) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read fixtures file: %w", err)
	}

	var fixtures []fixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("parse fixtures file: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	created := 0
	for _, f := range fixtures {
		if err := createMatch(ctx, client, baseURL, f); err != nil {
			return fmt.Errorf("create %s vs %s: %w", f.HomeTeam, f.AwayTeam, err)
		}
		created++
	}

	fmt.Printf("created %d fixtures\n", created)
	return nil
}

func createMatch(ctx context.Context, client *http.Client, baseURL string, f fixture) error {
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/matches", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post fixture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
