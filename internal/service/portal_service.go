// Package service implements the connect handlers of the portal.
package service

import (
	"time"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/archive"
	"github.com/castlemilk/wealthportal/backend/internal/billing"
	"github.com/castlemilk/wealthportal/backend/internal/chat"
	"github.com/castlemilk/wealthportal/backend/internal/extraction"
	"github.com/castlemilk/wealthportal/backend/internal/search"
	"github.com/castlemilk/wealthportal/backend/internal/store"
)

// Deps are the collaborators of the portal service. Directory and Billing
// are optional. Handlers log through logger.FromContext.
type Deps struct {
	Store      store.Store
	Extraction *extraction.ExtractionService
	Archive    archive.Archive
	Facts      chat.FactsBuilder
	Chat       *chat.Orchestrator
	Directory  search.Directory
	Billing    *billing.Syncer
}

// PortalService serves the client portal and its admin back office.
type PortalService struct {
	store      store.Store
	extraction *extraction.ExtractionService
	archive    archive.Archive
	facts      chat.FactsBuilder
	chat       *chat.Orchestrator
	directory  search.Directory
	billing    *billing.Syncer
	now        func() time.Time
}

// NewPortalService wires a PortalService.
func NewPortalService(d Deps) *PortalService {
	return &PortalService{
		store:      d.Store,
		extraction: d.Extraction,
		archive:    d.Archive,
		facts:      d.Facts,
		chat:       d.Chat,
		directory:  d.Directory,
		billing:    d.Billing,
		now:        time.Now,
	}
}

var _ api.PortalServiceHandler = (*PortalService)(nil)
