// Command sweep triggers an expiry cleanup run on a running server. It is
// meant to be invoked from cron or a similar scheduler.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Barnamoyy/fileshare/internal/server/auth"
	"github.com/Barnamoyy/fileshare/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	token, err := auth.GenerateSweepToken([]byte(cfg.SweepSecret), cfg.SweepTokenValidity)
	if err != nil {
		return fmt.Errorf("token generation error: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, cfg.PublicBaseURL+"/api/cleanup", nil)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cleanup request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success      bool   `json:"success"`
		DeletedCount int    `json:"deletedCount"`
		Message      string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("response decode error: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !result.Success {
		return fmt.Errorf("cleanup failed: status=%d deleted=%d message=%q",
			resp.StatusCode, result.DeletedCount, result.Message)
	}

	log.Printf("cleanup complete: deleted=%d", result.DeletedCount)
	return nil
}
