package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

const (
	colUsers         = "users"
	colReports       = "reports"
	colHistory       = "history"
	colInvoices      = "invoices"
	colDocuments     = "documents"
	colProfitItems   = "profitItems"
	colConversations = "conversations"
	colMessages      = "messages"
)

// FirestoreStore implements the Store interface using Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{
		client: client,
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// getDoc reads one document into dst, mapping a missing document to ErrNotFound.
func (s *FirestoreStore) getDoc(ctx context.Context, collection, id string, dst any) error {
	doc, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
		}
		return fmt.Errorf("failed to get %s: %w", collection, err)
	}
	if err := doc.DataTo(dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", collection, err)
	}
	return nil
}

// listDocs decodes every document of a query.
func listDocs[T any](ctx context.Context, query firestore.Query, what string) ([]*T, error) {
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", what, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// --- Users ---

func (s *FirestoreStore) GetUser(ctx context.Context, userID string) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := s.getDoc(ctx, colUsers, userID, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *FirestoreStore) UpsertUser(ctx context.Context, user *model.UserProfile) error {
	if user.ID == "" {
		return fmt.Errorf("user ID is required")
	}
	_, err := s.client.Collection(colUsers).Doc(user.ID).Set(ctx, user)
	return err
}

func (s *FirestoreStore) ListClients(ctx context.Context) ([]*model.UserProfile, error) {
	query := s.client.Collection(colUsers).Where("role", "==", string(model.RoleClient)).OrderBy("name", firestore.Asc)
	return listDocs[model.UserProfile](ctx, query, "clients")
}

// --- Reports ---

func (s *FirestoreStore) CreateReport(ctx context.Context, report *model.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	_, err := s.client.Collection(colReports).Doc(report.ID).Set(ctx, report)
	return err
}

func (s *FirestoreStore) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	var r model.Report
	if err := s.getDoc(ctx, colReports, reportID, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *FirestoreStore) ListReports(ctx context.Context, since, until time.Time) ([]*model.Report, error) {
	query := s.client.Collection(colReports).Query
	if !since.IsZero() {
		query = query.Where("date", ">=", since)
	}
	if !until.IsZero() {
		query = query.Where("date", "<=", until)
	}
	reports, err := listDocs[model.Report](ctx, query.OrderBy("date", firestore.Desc), "reports")
	if err != nil {
		return nil, err
	}
	SortReportsNewestFirst(reports)
	return reports, nil
}

func (s *FirestoreStore) ListReportsByClient(ctx context.Context, clientID string) ([]*model.Report, error) {
	query := s.client.Collection(colReports).Where("clientId", "==", clientID).OrderBy("date", firestore.Desc)
	reports, err := listDocs[model.Report](ctx, query, "reports")
	if err != nil {
		return nil, err
	}
	SortReportsNewestFirst(reports)
	return reports, nil
}

// --- History ---

func (s *FirestoreStore) AppendHistory(ctx context.Context, points []model.HistoryPoint) error {
	if len(points) == 0 {
		return nil
	}
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(points))
	col := s.client.Collection(colHistory)
	for i := range points {
		job, err := bw.Create(col.NewDoc(), points[i])
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue history point: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to write history point: %w", err)
		}
	}
	return nil
}

func (s *FirestoreStore) ListHistoryByClient(ctx context.Context, clientID string) ([]model.HistoryPoint, error) {
	query := s.client.Collection(colHistory).Where("clientId", "==", clientID).OrderBy("date", firestore.Asc)
	return s.listHistory(ctx, query)
}

func (s *FirestoreStore) ListHistoryUntil(ctx context.Context, until time.Time) ([]model.HistoryPoint, error) {
	query := s.client.Collection(colHistory).Where("date", "<=", until).OrderBy("date", firestore.Asc)
	return s.listHistory(ctx, query)
}

func (s *FirestoreStore) listHistory(ctx context.Context, query firestore.Query) ([]model.HistoryPoint, error) {
	points, err := listDocs[model.HistoryPoint](ctx, query, "history")
	if err != nil {
		return nil, err
	}
	out := make([]model.HistoryPoint, len(points))
	for i, p := range points {
		out[i] = *p
	}
	return out, nil
}

// --- Invoices ---

func (s *FirestoreStore) CreateInvoice(ctx context.Context, invoice *model.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	_, err := s.client.Collection(colInvoices).Doc(invoice.ID).Set(ctx, invoice)
	return err
}

func (s *FirestoreStore) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	var inv model.Invoice
	if err := s.getDoc(ctx, colInvoices, invoiceID, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *FirestoreStore) UpdateInvoice(ctx context.Context, invoice *model.Invoice) error {
	ref := s.client.Collection(colInvoices).Doc(invoice.ID)
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("invoice %s: %w", invoice.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to get invoice: %w", err)
	}
	_, err := ref.Set(ctx, invoice)
	return err
}

func (s *FirestoreStore) ListInvoices(ctx context.Context) ([]*model.Invoice, error) {
	query := s.client.Collection(colInvoices).OrderBy("issuedAt", firestore.Desc)
	return listDocs[model.Invoice](ctx, query, "invoices")
}

func (s *FirestoreStore) ListInvoicesByClient(ctx context.Context, clientID string) ([]*model.Invoice, error) {
	query := s.client.Collection(colInvoices).Where("clientId", "==", clientID).OrderBy("issuedAt", firestore.Desc)
	return listDocs[model.Invoice](ctx, query, "invoices")
}

// --- Documents ---

func (s *FirestoreStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	_, err := s.client.Collection(colDocuments).Doc(doc.ID).Set(ctx, doc)
	return err
}

func (s *FirestoreStore) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	var d model.Document
	if err := s.getDoc(ctx, colDocuments, documentID, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *FirestoreStore) ListDocumentsByOwner(ctx context.Context, ownerID string) ([]*model.Document, error) {
	query := s.client.Collection(colDocuments).Where("ownerId", "==", ownerID).OrderBy("uploadedAt", firestore.Desc)
	return listDocs[model.Document](ctx, query, "documents")
}

// --- Profit items ---

// ReplaceProfitItems overwrites the whole item list of a document.
func (s *FirestoreStore) ReplaceProfitItems(ctx context.Context, extraction *model.ProfitExtraction) error {
	if extraction.DocumentID == "" {
		return fmt.Errorf("document ID is required")
	}
	ref := s.client.Collection(colProfitItems).Doc(extraction.DocumentID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Delete(ref); err != nil {
			return err
		}
		return tx.Create(ref, extraction)
	})
}

func (s *FirestoreStore) GetProfitItems(ctx context.Context, documentID string) (*model.ProfitExtraction, error) {
	var p model.ProfitExtraction
	if err := s.getDoc(ctx, colProfitItems, documentID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Conversations ---

// GetOrCreateConversation keys conversations by user ID so each user has one
// running conversation.
func (s *FirestoreStore) GetOrCreateConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	ref := s.client.Collection(colConversations).Doc(userID)
	var conv model.Conversation
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err == nil {
			return doc.DataTo(&conv)
		}
		if !isNotFound(err) {
			return err
		}
		now := time.Now()
		conv = model.Conversation{ID: uuid.New().String(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		return tx.Create(ref, conv)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (s *FirestoreStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	if msg.ConversationID == "" {
		return fmt.Errorf("conversation ID is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if _, err := s.client.Collection(colMessages).Doc(msg.ID).Set(ctx, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	_, err := s.client.Collection(colConversations).Doc(msg.UserID).Update(ctx, []firestore.Update{
		{Path: "updatedAt", Value: msg.CreatedAt},
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// ListMessages returns the last limit messages, oldest first.
func (s *FirestoreStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]*model.Message, error) {
	query := s.client.Collection(colMessages).
		Where("conversationId", "==", conversationID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var msgs []*model.Message
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		var m model.Message
		if err := doc.DataTo(&m); err != nil {
			return nil, fmt.Errorf("failed to parse message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
