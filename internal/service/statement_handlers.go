package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/archive"
	"github.com/castlemilk/wealthportal/backend/internal/auth"
	"github.com/castlemilk/wealthportal/backend/internal/logger"
	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/store"
)

// UploadStatement archives a PDF (or text export) statement and stores the
// profit items detected in it. Clients upload their own statements; admins
// may upload for anyone.
func (s *PortalService) UploadStatement(ctx context.Context, req *connect.Request[api.UploadStatementRequest]) (*connect.Response[api.UploadStatementResponse], error) {
	claims, err := auth.RequireClientAccess(ctx, req.Msg.OwnerID)
	if err != nil {
		return nil, err
	}
	ownerID := req.Msg.OwnerID
	if ownerID == "" {
		ownerID = claims.UID
	}
	if req.Msg.Filename == "" {
		return nil, invalidArgument("filename is required")
	}

	items, err := s.extraction.ExtractProfits(ctx, req.Msg.Data, req.Msg.Filename)
	if err != nil {
		return nil, toConnectError(err)
	}

	doc, err := s.archiveDocument(ctx, claims.UID, ownerID, req.Msg.Filename, model.DocumentKindPDF, req.Msg.Data)
	if err != nil {
		return nil, toConnectError(err)
	}

	profits, err := s.replaceProfits(ctx, doc, items)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.UploadStatementResponse{Document: doc, Profits: profits}), nil
}

// ReextractProfits reruns the profit rules over an archived statement and
// replaces the stored items.
func (s *PortalService) ReextractProfits(ctx context.Context, req *connect.Request[api.ReextractProfitsRequest]) (*connect.Response[api.ProfitsResponse], error) {
	doc, err := s.accessibleDocument(ctx, req.Msg.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Kind != model.DocumentKindPDF {
		return nil, invalidArgument("document %s is not a statement", doc.ID)
	}

	data, err := s.archive.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, toConnectError(err)
	}
	items, err := s.extraction.ExtractProfits(ctx, data, doc.Filename)
	if err != nil {
		return nil, toConnectError(err)
	}
	profits, err := s.replaceProfits(ctx, doc, items)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ProfitsResponse{Profits: profits}), nil
}

// ListProfitItems returns the stored profit items of a document. A document
// that was never extracted yields an empty list.
func (s *PortalService) ListProfitItems(ctx context.Context, req *connect.Request[api.ListProfitItemsRequest]) (*connect.Response[api.ProfitsResponse], error) {
	doc, err := s.accessibleDocument(ctx, req.Msg.DocumentID)
	if err != nil {
		return nil, err
	}

	profits, err := s.store.GetProfitItems(ctx, doc.ID)
	if errors.Is(err, store.ErrNotFound) {
		profits = &model.ProfitExtraction{DocumentID: doc.ID, OwnerID: doc.OwnerID, Items: []model.ProfitItem{}}
	} else if err != nil {
		return nil, toConnectError(auth.WrapStoreError("get profit items", err))
	}
	return connect.NewResponse(&api.ProfitsResponse{Profits: profits}), nil
}

// ListDocuments lists the uploads of a client.
func (s *PortalService) ListDocuments(ctx context.Context, req *connect.Request[api.ListDocumentsRequest]) (*connect.Response[api.ListDocumentsResponse], error) {
	claims, err := auth.RequireClientAccess(ctx, req.Msg.OwnerID)
	if err != nil {
		return nil, err
	}
	ownerID := req.Msg.OwnerID
	if ownerID == "" {
		ownerID = claims.UID
	}
	docs, err := s.store.ListDocumentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, toConnectError(auth.WrapStoreError("list documents", err))
	}
	return connect.NewResponse(&api.ListDocumentsResponse{Documents: docs}), nil
}

// ExportStatements bundles a client's archived uploads into a ZIP.
func (s *PortalService) ExportStatements(ctx context.Context, req *connect.Request[api.ExportStatementsRequest]) (*connect.Response[api.ExportStatementsResponse], error) {
	claims, err := auth.RequireClientAccess(ctx, req.Msg.ClientID)
	if err != nil {
		return nil, err
	}
	clientID := req.Msg.ClientID
	if clientID == "" {
		clientID = claims.UID
	}

	docs, err := s.store.ListDocumentsByOwner(ctx, clientID)
	if err != nil {
		return nil, toConnectError(auth.WrapStoreError("list documents", err))
	}
	data, count, err := archive.ExportZip(ctx, s.archive, docs)
	if err != nil {
		return nil, toConnectError(err)
	}

	logger.FromContext(ctx).Info("[service] statements exported", "client_id", clientID, "files", count, "documents", len(docs))
	return connect.NewResponse(&api.ExportStatementsResponse{
		Filename:  fmt.Sprintf("extractos-%s-%s.zip", clientID, s.now().Format(api.DateLayout)),
		Data:      data,
		FileCount: count,
	}), nil
}

func (s *PortalService) accessibleDocument(ctx context.Context, documentID string) (*model.Document, error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}
	if documentID == "" {
		return nil, invalidArgument("document ID is required")
	}
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, toConnectError(auth.WrapStoreError("get document", err))
	}
	if _, err := auth.RequireClientAccess(ctx, doc.OwnerID); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PortalService) replaceProfits(ctx context.Context, doc *model.Document, items []model.ProfitItem) (*model.ProfitExtraction, error) {
	if items == nil {
		items = []model.ProfitItem{}
	}
	profits := &model.ProfitExtraction{
		DocumentID:  doc.ID,
		OwnerID:     doc.OwnerID,
		Items:       items,
		ExtractedAt: s.now(),
	}
	if err := s.store.ReplaceProfitItems(ctx, profits); err != nil {
		return nil, auth.WrapStoreError("replace profit items", err)
	}
	logger.FromContext(ctx).Info("[service] profit items stored", "document_id", doc.ID, "items", len(items))
	return profits, nil
}
