package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/archive"
	"github.com/castlemilk/wealthportal/backend/internal/auth"
	"github.com/castlemilk/wealthportal/backend/internal/chat"
	"github.com/castlemilk/wealthportal/backend/internal/logger"
	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// ExtractWorkbook turns an uploaded statement workbook into a draft report
// awaiting admin review. The workbook is archived as the draft's source.
func (s *PortalService) ExtractWorkbook(ctx context.Context, req *connect.Request[api.ExtractWorkbookRequest]) (*connect.Response[api.ExtractWorkbookResponse], error) {
	claims, err := auth.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ClientID == "" {
		return nil, invalidArgument("client ID is required")
	}
	if len(req.Msg.Data) == 0 {
		return nil, invalidArgument("workbook data is required")
	}

	reportDate := s.now().UTC().Truncate(24 * time.Hour)
	if req.Msg.ReportDate != "" {
		reportDate, err = time.Parse(api.DateLayout, req.Msg.ReportDate)
		if err != nil {
			return nil, invalidArgument("report date must be %s", api.DateLayout)
		}
	}

	draft, err := s.extraction.ExtractWorkbook(ctx, req.Msg.Data, req.Msg.Filename, req.Msg.ClientID, reportDate)
	if err != nil {
		return nil, toConnectError(err)
	}

	doc, err := s.archiveDocument(ctx, claims.UID, req.Msg.ClientID, req.Msg.Filename, model.DocumentKindWorkbook, req.Msg.Data)
	if err != nil {
		return nil, toConnectError(err)
	}
	draft.SourceDocumentID = doc.ID
	if err := s.extraction.Drafts().Put(draft); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ExtractWorkbookResponse{Draft: draft, Document: doc}), nil
}

// GetDraft returns a pending draft.
func (s *PortalService) GetDraft(ctx context.Context, req *connect.Request[api.GetDraftRequest]) (*connect.Response[api.GetDraftResponse], error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	draft, err := s.extraction.Drafts().Get(req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetDraftResponse{Draft: draft}), nil
}

// PublishDraft turns a reviewed draft into a published report and appends
// its monthly history. The draft is dropped only once the report is stored.
func (s *PortalService) PublishDraft(ctx context.Context, req *connect.Request[api.PublishDraftRequest]) (*connect.Response[api.PublishDraftResponse], error) {
	claims, err := auth.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	drafts := s.extraction.Drafts()
	draft, err := drafts.Get(req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}

	if req.Msg.InvoiceID != "" {
		inv, err := s.store.GetInvoice(ctx, req.Msg.InvoiceID)
		if err != nil {
			return nil, toConnectError(auth.WrapStoreError("get invoice", err))
		}
		if inv.ClientID != draft.ClientID {
			return nil, invalidArgument("invoice %s belongs to another client", inv.ID)
		}
	}

	summary := draft.ExecutiveSummary
	snapshot := draft.Snapshot
	report := &model.Report{
		ID:                uuid.New().String(),
		ClientID:          draft.ClientID,
		ClientName:        s.clientName(ctx, draft.ClientID, req.Msg.ClientName),
		Date:              draft.ReportDate,
		Status:            model.ReportStatusPublished,
		ExecutiveSummary:  &summary,
		Snapshot:          &snapshot,
		History:           draft.History,
		ParentAllocation:  draft.ParentAllocation,
		ChildAllocation:   draft.ChildAllocation,
		Narrative:         chat.SanitizeUserText(req.Msg.Narrative),
		InvoiceID:         req.Msg.InvoiceID,
		SourceDocumentID:  draft.SourceDocumentID,
		CreatedAt:         s.now(),
		PublishedByUserID: claims.UID,
	}

	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, toConnectError(auth.WrapStoreError("create report", err))
	}
	if len(draft.History) > 0 {
		if err := s.store.AppendHistory(ctx, draft.History); err != nil {
			return nil, toConnectError(auth.WrapStoreError("append history", err))
		}
	}
	if _, err := drafts.Take(draft.ID); err != nil {
		logger.FromContext(ctx).Warn("[service] draft vanished after publish", "draft_id", draft.ID, "error", err)
	}

	logger.FromContext(ctx).Info("[service] report published",
		"report_id", report.ID,
		"client_id", report.ClientID,
		"history_points", len(draft.History),
	)
	return connect.NewResponse(&api.PublishDraftResponse{Report: report}), nil
}

// clientName prefers the explicit name, then the stored profile name.
func (s *PortalService) clientName(ctx context.Context, clientID, explicit string) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	if profile, err := s.store.GetUser(ctx, clientID); err == nil && profile.Name != "" {
		return profile.Name
	}
	return ""
}

// archiveDocument stores the raw bytes of an upload and records it.
func (s *PortalService) archiveDocument(ctx context.Context, uploaderID, ownerID, filename string, kind model.DocumentKind, data []byte) (*model.Document, error) {
	doc := &model.Document{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Filename:   filename,
		Kind:       kind,
		SizeBytes:  int64(len(data)),
		UploadedBy: uploaderID,
		UploadedAt: s.now(),
	}
	doc.StoragePath = archive.StatementPath(ownerID, doc.ID, filename)

	if err := s.archive.Put(ctx, doc.StoragePath, data, http.DetectContentType(data)); err != nil {
		return nil, fmt.Errorf("archive document: %w", err)
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, auth.WrapStoreError("create document", err)
	}
	return doc, nil
}
