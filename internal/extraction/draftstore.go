package extraction

import (
	"fmt"
	"sync"
	"time"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = fmt.Errorf("draft not found")

// DraftStore keeps extracted report drafts in memory until they are
// published or expire.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*model.ReportDraft
	ttl    time.Duration
	now    func() time.Time
	done   chan struct{}
}

// NewDraftStore creates a new draft store with background cleanup.
func NewDraftStore(ttl time.Duration) *DraftStore {
	ds := &DraftStore{
		drafts: make(map[string]*model.ReportDraft),
		ttl:    ttl,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go ds.cleanup()
	return ds
}

// Put stores a draft.
func (ds *DraftStore) Put(draft *model.ReportDraft) error {
	if draft.ID == "" {
		return fmt.Errorf("draft ID is required")
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.drafts[draft.ID] = draft
	return nil
}

// Get retrieves a draft by ID. Expired drafts are reported as not found even
// if the cleanup loop has not collected them yet.
func (ds *DraftStore) Get(id string) (*model.ReportDraft, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	draft, ok := ds.drafts[id]
	if !ok || ds.expired(draft) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return draft, nil
}

// Take removes and returns a draft.
func (ds *DraftStore) Take(id string) (*model.ReportDraft, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	draft, ok := ds.drafts[id]
	if !ok || ds.expired(draft) {
		delete(ds.drafts, id)
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	delete(ds.drafts, id)
	return draft, nil
}

// Stop signals the background cleanup goroutine to exit.
func (ds *DraftStore) Stop() {
	close(ds.done)
}

func (ds *DraftStore) expired(d *model.ReportDraft) bool {
	return !d.CreatedAt.IsZero() && ds.now().Sub(d.CreatedAt) > ds.ttl
}

func (ds *DraftStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ds.done:
			return
		case <-ticker.C:
			ds.mu.Lock()
			for id, d := range ds.drafts {
				if ds.expired(d) {
					delete(ds.drafts, id)
				}
			}
			ds.mu.Unlock()
		}
	}
}
