package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/mahesh-1-0/shopify-insights/internal/config"
)

// Prints the resolved configuration for troubleshooting env/file layering.
// Secrets are redacted before printing.
func main() {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	redacted := *cfg
	if redacted.Database.URL != "" {
		redacted.Database.URL = "<set>"
	}
	if redacted.Redis.URL != "" {
		redacted.Redis.URL = "<set>"
	}
	if redacted.Shopify.APISecret != "" {
		redacted.Shopify.APISecret = "<set>"
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(redacted); err != nil {
		log.Fatalf("encode config: %v", err)
	}
}
