package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/textnorm"
)

// ClientLister lists portal clients.
type ClientLister interface {
	ListClients(ctx context.Context) ([]*model.UserProfile, error)
}

// StoreDirectory searches clients straight from the store. It serves local
// development where no Algolia index exists.
type StoreDirectory struct {
	clients ClientLister
}

// NewStoreDirectory creates a store-backed directory.
func NewStoreDirectory(clients ClientLister) *StoreDirectory {
	return &StoreDirectory{clients: clients}
}

// SearchClients matches the query against name and email, ignoring case and
// accents. An empty query lists every client.
func (d *StoreDirectory) SearchClients(ctx context.Context, query string, page, pageSize int) (*Results, error) {
	page, pageSize = clampPage(page, pageSize)

	clients, err := d.clients.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	q := textnorm.Lower(query)
	var hits []ClientHit
	for _, c := range clients {
		if q != "" && !strings.Contains(textnorm.Lower(c.Name), q) && !strings.Contains(textnorm.Lower(c.Email), q) {
			continue
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		hits = append(hits, ClientHit{ClientID: c.ID, DisplayName: name, Email: c.Email})
	}

	out := &Results{Hits: []ClientHit{}, TotalCount: len(hits), Page: page}
	out.TotalPages = (len(hits) + pageSize - 1) / pageSize
	start := page * pageSize
	if start < len(hits) {
		end := min(start+pageSize, len(hits))
		out.Hits = hits[start:end]
	}
	return out, nil
}

var _ Directory = (*StoreDirectory)(nil)
