package store

import (
	"context"
	"errors"
	"time"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations used by the service.
// Report listings are returned newest first; history listings oldest first.
type Store interface {
	// User operations
	GetUser(ctx context.Context, userID string) (*model.UserProfile, error)
	UpsertUser(ctx context.Context, user *model.UserProfile) error
	ListClients(ctx context.Context) ([]*model.UserProfile, error)

	// Report operations
	CreateReport(ctx context.Context, report *model.Report) error
	GetReport(ctx context.Context, reportID string) (*model.Report, error)
	ListReports(ctx context.Context, since, until time.Time) ([]*model.Report, error)
	ListReportsByClient(ctx context.Context, clientID string) ([]*model.Report, error)

	// History operations
	AppendHistory(ctx context.Context, points []model.HistoryPoint) error
	ListHistoryByClient(ctx context.Context, clientID string) ([]model.HistoryPoint, error)
	ListHistoryUntil(ctx context.Context, until time.Time) ([]model.HistoryPoint, error)

	// Invoice operations
	CreateInvoice(ctx context.Context, invoice *model.Invoice) error
	GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice *model.Invoice) error
	ListInvoices(ctx context.Context) ([]*model.Invoice, error)
	ListInvoicesByClient(ctx context.Context, clientID string) ([]*model.Invoice, error)

	// Document operations
	CreateDocument(ctx context.Context, doc *model.Document) error
	GetDocument(ctx context.Context, documentID string) (*model.Document, error)
	ListDocumentsByOwner(ctx context.Context, ownerID string) ([]*model.Document, error)

	// Profit extraction operations
	ReplaceProfitItems(ctx context.Context, extraction *model.ProfitExtraction) error
	GetProfitItems(ctx context.Context, documentID string) (*model.ProfitExtraction, error)

	ConversationStore
}

// ConversationStore persists chat conversations and their messages.
type ConversationStore interface {
	GetOrCreateConversation(ctx context.Context, userID string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*model.Message, error)
}

// WithConversations returns a Store that delegates conversation operations to
// conv and everything else to base.
func WithConversations(base Store, conv ConversationStore) Store {
	if conv == nil {
		return base
	}
	return &compositeStore{Store: base, conv: conv}
}

type compositeStore struct {
	Store
	conv ConversationStore
}

func (c *compositeStore) GetOrCreateConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	return c.conv.GetOrCreateConversation(ctx, userID)
}

func (c *compositeStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	return c.conv.AppendMessage(ctx, msg)
}

func (c *compositeStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]*model.Message, error) {
	return c.conv.ListMessages(ctx, conversationID, limit)
}
