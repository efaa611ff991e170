// Package search exposes the admin client directory backed by Algolia.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"
)

// DefaultIndexName is the client-directory index.
const DefaultIndexName = "wealthportal_clients"

// Config holds Algolia configuration.
type Config struct {
	AppID     string
	APIKey    string // Search-only API key
	IndexName string
}

// ClientHit is one client-directory result.
type ClientHit struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Results holds one page of directory results.
type Results struct {
	Hits       []ClientHit `json:"hits"`
	TotalCount int         `json:"totalCount"`
	TotalPages int         `json:"totalPages"`
	Page       int         `json:"page"`
}

// Directory searches portal clients.
type Directory interface {
	SearchClients(ctx context.Context, query string, page, pageSize int) (*Results, error)
}

// ClientDirectory wraps the Algolia search API client.
type ClientDirectory struct {
	client    *search.APIClient
	indexName string
}

// NewClientDirectory creates a new Algolia-backed directory.
func NewClientDirectory(cfg Config) (*ClientDirectory, error) {
	if cfg.AppID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("algolia AppID and APIKey are required")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}

	client, err := search.NewClient(cfg.AppID, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating algolia client: %w", err)
	}

	return &ClientDirectory{
		client:    client,
		indexName: cfg.IndexName,
	}, nil
}

// SearchClients performs a full-text search over the client directory.
// Only records with role "client" are returned.
func (c *ClientDirectory) SearchClients(ctx context.Context, query string, page, pageSize int) (*Results, error) {
	page, pageSize = clampPage(page, pageSize)

	params := search.SearchParamsObjectAsSearchParams(
		search.NewSearchParamsObject().
			SetQuery(strings.TrimSpace(query)).
			SetHitsPerPage(int32(pageSize)).
			SetPage(int32(page)).
			SetFilters(`role:"client"`),
	)

	resp, err := c.client.SearchSingleIndex(c.client.NewApiSearchSingleIndexRequest(c.indexName).WithSearchParams(params))
	if err != nil {
		return nil, fmt.Errorf("algolia search: %w", err)
	}

	out := &Results{Hits: make([]ClientHit, 0, len(resp.Hits)), Page: page}
	for _, hit := range resp.Hits {
		if h, ok := hitToClient(hit.AdditionalProperties); ok {
			out.Hits = append(out.Hits, h)
		}
	}
	if resp.NbHits != nil {
		out.TotalCount = int(*resp.NbHits)
	}
	if resp.NbPages != nil {
		out.TotalPages = int(*resp.NbPages)
	}
	return out, nil
}

func clampPage(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if page < 0 {
		page = 0
	}
	return page, pageSize
}

// hitToClient converts an Algolia hit into a ClientHit.
func hitToClient(props map[string]any) (ClientHit, bool) {
	var h ClientHit
	if v, ok := props["objectID"].(string); ok {
		h.ClientID = v
	}
	if v, ok := props["displayName"].(string); ok {
		h.DisplayName = v
	}
	if v, ok := props["email"].(string); ok {
		h.Email = v
	}
	if h.ClientID == "" {
		slog.Warn("[search] skipping hit with no objectID")
		return ClientHit{}, false
	}
	if h.DisplayName == "" {
		h.DisplayName = h.ClientID
	}
	return h, true
}

var _ Directory = (*ClientDirectory)(nil)
