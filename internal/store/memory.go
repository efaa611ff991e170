package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// MemoryStore implements Store interface with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	users         map[string]*model.UserProfile
	reports       map[string]*model.Report
	history       []model.HistoryPoint
	invoices      map[string]*model.Invoice
	documents     map[string]*model.Document
	profits       map[string]*model.ProfitExtraction
	conversations map[string]*model.Conversation // keyed by user ID
	messages      map[string][]*model.Message    // keyed by conversation ID
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*model.UserProfile),
		reports:       make(map[string]*model.Report),
		invoices:      make(map[string]*model.Invoice),
		documents:     make(map[string]*model.Document),
		profits:       make(map[string]*model.ProfitExtraction),
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]*model.Message),
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// --- Users ---

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpsertUser(ctx context.Context, user *model.UserProfile) error {
	if user.ID == "" {
		return fmt.Errorf("user ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) ListClients(ctx context.Context) ([]*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.UserProfile
	for _, u := range s.users {
		if u.Role == model.RoleClient {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- Reports ---

func (s *MemoryStore) CreateReport(ctx context.Context, report *model.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

func (s *MemoryStore) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, notFound("report", reportID)
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ListReports(ctx context.Context, since, until time.Time) ([]*model.Report, error) {
	return s.listReports(func(r *model.Report) bool {
		if !since.IsZero() && r.Date.Before(since) {
			return false
		}
		if !until.IsZero() && r.Date.After(until) {
			return false
		}
		return true
	}), nil
}

func (s *MemoryStore) ListReportsByClient(ctx context.Context, clientID string) ([]*model.Report, error) {
	return s.listReports(func(r *model.Report) bool { return r.ClientID == clientID }), nil
}

func (s *MemoryStore) listReports(keep func(*model.Report) bool) []*model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Report
	for _, r := range s.reports {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	SortReportsNewestFirst(out)
	return out
}

// SortReportsNewestFirst orders reports by date descending, breaking ties by
// creation time and ID.
func SortReportsNewestFirst(reports []*model.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// --- History ---

func (s *MemoryStore) AppendHistory(ctx context.Context, points []model.HistoryPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, points...)
	return nil
}

func (s *MemoryStore) ListHistoryByClient(ctx context.Context, clientID string) ([]model.HistoryPoint, error) {
	return s.listHistory(func(p model.HistoryPoint) bool { return p.ClientID == clientID }), nil
}

func (s *MemoryStore) ListHistoryUntil(ctx context.Context, until time.Time) ([]model.HistoryPoint, error) {
	return s.listHistory(func(p model.HistoryPoint) bool { return !p.Date.After(until) }), nil
}

func (s *MemoryStore) listHistory(keep func(model.HistoryPoint) bool) []model.HistoryPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.HistoryPoint
	for _, p := range s.history {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// --- Invoices ---

func (s *MemoryStore) CreateInvoice(ctx context.Context, invoice *model.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *invoice
	s.invoices[invoice.ID] = &cp
	return nil
}

func (s *MemoryStore) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, notFound("invoice", invoiceID)
	}
	cp := *inv
	return &cp, nil
}

func (s *MemoryStore) UpdateInvoice(ctx context.Context, invoice *model.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[invoice.ID]; !ok {
		return notFound("invoice", invoice.ID)
	}
	cp := *invoice
	s.invoices[invoice.ID] = &cp
	return nil
}

func (s *MemoryStore) ListInvoices(ctx context.Context) ([]*model.Invoice, error) {
	return s.listInvoices(func(*model.Invoice) bool { return true }), nil
}

func (s *MemoryStore) ListInvoicesByClient(ctx context.Context, clientID string) ([]*model.Invoice, error) {
	return s.listInvoices(func(inv *model.Invoice) bool { return inv.ClientID == clientID }), nil
}

func (s *MemoryStore) listInvoices(keep func(*model.Invoice) bool) []*model.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Invoice
	for _, inv := range s.invoices {
		if keep(inv) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// --- Documents ---

func (s *MemoryStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.documents[doc.ID] = &cp
	return nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[documentID]
	if !ok {
		return nil, notFound("document", documentID)
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) ListDocumentsByOwner(ctx context.Context, ownerID string) ([]*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Document
	for _, d := range s.documents {
		if d.OwnerID == ownerID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- Profit items ---

func (s *MemoryStore) ReplaceProfitItems(ctx context.Context, extraction *model.ProfitExtraction) error {
	if extraction.DocumentID == "" {
		return fmt.Errorf("document ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *extraction
	cp.Items = append([]model.ProfitItem(nil), extraction.Items...)
	s.profits[extraction.DocumentID] = &cp
	return nil
}

func (s *MemoryStore) GetProfitItems(ctx context.Context, documentID string) (*model.ProfitExtraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profits[documentID]
	if !ok {
		return nil, notFound("profit extraction", documentID)
	}
	cp := *p
	cp.Items = append([]model.ProfitItem(nil), p.Items...)
	return &cp, nil
}

// --- Conversations ---

func (s *MemoryStore) GetOrCreateConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[userID]; ok {
		cp := *c
		return &cp, nil
	}
	now := time.Now()
	c := &model.Conversation{ID: uuid.New().String(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.conversations[userID] = c
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	if msg.ConversationID == "" {
		return fmt.Errorf("conversation ID is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], &cp)
	if c, ok := s.conversations[msg.UserID]; ok && c.ID == msg.ConversationID {
		c.UpdatedAt = msg.CreatedAt
	}
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*model.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
