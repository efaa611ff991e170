package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/castlemilk/wealthportal/backend/internal/chat"
)

// ServiceName is the fully-qualified name of the portal service.
const ServiceName = "wealthportal.v1.PortalService"

// Procedure paths.
const (
	ExtractWorkbookProcedure      = "/" + ServiceName + "/ExtractWorkbook"
	GetDraftProcedure             = "/" + ServiceName + "/GetDraft"
	PublishDraftProcedure         = "/" + ServiceName + "/PublishDraft"
	UploadStatementProcedure      = "/" + ServiceName + "/UploadStatement"
	ReextractProfitsProcedure     = "/" + ServiceName + "/ReextractProfits"
	ListProfitItemsProcedure      = "/" + ServiceName + "/ListProfitItems"
	ListDocumentsProcedure        = "/" + ServiceName + "/ListDocuments"
	ExportStatementsProcedure     = "/" + ServiceName + "/ExportStatements"
	SearchClientsProcedure        = "/" + ServiceName + "/SearchClients"
	RefreshInvoiceStatusProcedure = "/" + ServiceName + "/RefreshInvoiceStatus"
	GetFactsProcedure             = "/" + ServiceName + "/GetFacts"
	ListMessagesProcedure         = "/" + ServiceName + "/ListMessages"
	ChatProcedure                 = "/" + ServiceName + "/Chat"
)

// PortalServiceHandler is implemented by the portal service.
type PortalServiceHandler interface {
	ExtractWorkbook(context.Context, *connect.Request[ExtractWorkbookRequest]) (*connect.Response[ExtractWorkbookResponse], error)
	GetDraft(context.Context, *connect.Request[GetDraftRequest]) (*connect.Response[GetDraftResponse], error)
	PublishDraft(context.Context, *connect.Request[PublishDraftRequest]) (*connect.Response[PublishDraftResponse], error)
	UploadStatement(context.Context, *connect.Request[UploadStatementRequest]) (*connect.Response[UploadStatementResponse], error)
	ReextractProfits(context.Context, *connect.Request[ReextractProfitsRequest]) (*connect.Response[ProfitsResponse], error)
	ListProfitItems(context.Context, *connect.Request[ListProfitItemsRequest]) (*connect.Response[ProfitsResponse], error)
	ListDocuments(context.Context, *connect.Request[ListDocumentsRequest]) (*connect.Response[ListDocumentsResponse], error)
	ExportStatements(context.Context, *connect.Request[ExportStatementsRequest]) (*connect.Response[ExportStatementsResponse], error)
	SearchClients(context.Context, *connect.Request[SearchClientsRequest]) (*connect.Response[SearchClientsResponse], error)
	RefreshInvoiceStatus(context.Context, *connect.Request[RefreshInvoiceStatusRequest]) (*connect.Response[RefreshInvoiceStatusResponse], error)
	GetFacts(context.Context, *connect.Request[GetFactsRequest]) (*connect.Response[GetFactsResponse], error)
	ListMessages(context.Context, *connect.Request[ListMessagesRequest]) (*connect.Response[ListMessagesResponse], error)
	Chat(context.Context, *connect.Request[ChatRequest], *connect.ServerStream[chat.Event]) error
}

// NewPortalServiceHandler builds an HTTP handler serving every procedure of
// svc. It returns the path prefix to mount the handler on.
func NewPortalServiceHandler(svc PortalServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec())}, opts...)

	handlers := map[string]http.Handler{
		ExtractWorkbookProcedure:      connect.NewUnaryHandler(ExtractWorkbookProcedure, svc.ExtractWorkbook, opts...),
		GetDraftProcedure:             connect.NewUnaryHandler(GetDraftProcedure, svc.GetDraft, opts...),
		PublishDraftProcedure:         connect.NewUnaryHandler(PublishDraftProcedure, svc.PublishDraft, opts...),
		UploadStatementProcedure:      connect.NewUnaryHandler(UploadStatementProcedure, svc.UploadStatement, opts...),
		ReextractProfitsProcedure:     connect.NewUnaryHandler(ReextractProfitsProcedure, svc.ReextractProfits, opts...),
		ListProfitItemsProcedure:      connect.NewUnaryHandler(ListProfitItemsProcedure, svc.ListProfitItems, opts...),
		ListDocumentsProcedure:        connect.NewUnaryHandler(ListDocumentsProcedure, svc.ListDocuments, opts...),
		ExportStatementsProcedure:     connect.NewUnaryHandler(ExportStatementsProcedure, svc.ExportStatements, opts...),
		SearchClientsProcedure:        connect.NewUnaryHandler(SearchClientsProcedure, svc.SearchClients, opts...),
		RefreshInvoiceStatusProcedure: connect.NewUnaryHandler(RefreshInvoiceStatusProcedure, svc.RefreshInvoiceStatus, opts...),
		GetFactsProcedure:             connect.NewUnaryHandler(GetFactsProcedure, svc.GetFacts, opts...),
		ListMessagesProcedure:         connect.NewUnaryHandler(ListMessagesProcedure, svc.ListMessages, opts...),
		ChatProcedure:                 connect.NewServerStreamHandler(ChatProcedure, svc.Chat, opts...),
	}

	prefix := "/" + ServiceName + "/"
	return prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
