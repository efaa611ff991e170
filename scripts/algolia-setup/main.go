// algolia-setup configures the client-directory index of the portal.
// This is the IaC definition for the Algolia search index.
//
// Usage:
//
//	ALGOLIA_APP_ID=... ALGOLIA_ADMIN_KEY=... go run ./scripts/algolia-setup
//	ALGOLIA_APP_ID=... ALGOLIA_ADMIN_KEY=... ALGOLIA_INDEX_NAME=wealthportal_clients go run ./scripts/algolia-setup
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"

	portalsearch "github.com/castlemilk/wealthportal/backend/internal/search"
)

func int32Ptr(v int32) *int32 { return &v }

// indexSettings is the single source of truth for the directory index.
// Records carry objectID (the user ID), displayName, email and role.
func indexSettings() *search.IndexSettings {
	return &search.IndexSettings{
		SearchableAttributes: []string{
			"displayName",
			"unordered(email)",
		},
		AttributesForFaceting: []string{
			"filterOnly(role)",
		},
		CustomRanking: []string{
			"asc(displayName)",
		},
		AttributesToRetrieve: []string{
			"objectID",
			"displayName",
			"email",
		},
		AttributesToHighlight: []string{
			"displayName",
		},
		HitsPerPage:          int32Ptr(20),
		MinWordSizefor1Typo:  int32Ptr(4),
		MinWordSizefor2Typos: int32Ptr(8),
	}
}

func main() {
	appID := os.Getenv("ALGOLIA_APP_ID")
	adminKey := os.Getenv("ALGOLIA_ADMIN_KEY")
	indexName := os.Getenv("ALGOLIA_INDEX_NAME")

	if appID == "" || adminKey == "" {
		slog.Error("ALGOLIA_APP_ID and ALGOLIA_ADMIN_KEY are required")
		os.Exit(1)
	}
	if indexName == "" {
		indexName = portalsearch.DefaultIndexName
	}

	client, err := search.NewClient(appID, adminKey)
	if err != nil {
		slog.Error("failed to create Algolia client", "error", err)
		os.Exit(1)
	}

	slog.Info("configuring Algolia index", "index", indexName, "app", appID)
	resp, err := client.SetSettings(client.NewApiSetSettingsRequest(indexName, indexSettings()))
	if err != nil {
		slog.Error("failed to set index settings", "error", err)
		os.Exit(1)
	}
	slog.Info("index settings applied", "task_id", resp.TaskID, "updated_at", resp.UpdatedAt)

	fmt.Println()
	fmt.Println("=== Client directory index ===")
	fmt.Printf("Index:              %s\n", indexName)
	fmt.Printf("App ID:             %s\n", appID)
	fmt.Println("Searchable attrs:   displayName, email")
	fmt.Println("Facet filters:      role")
	fmt.Println("Custom ranking:     asc(displayName)")
	fmt.Println()
	fmt.Println("Done. Settings are applied asynchronously.")
}
