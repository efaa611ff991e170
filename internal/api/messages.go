// Package api defines the wire messages and connect routing of the portal
// service.
package api

import (
	"github.com/castlemilk/wealthportal/backend/internal/facts"
	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/search"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

type ExtractWorkbookRequest struct {
	ClientID   string `json:"clientId"`
	ReportDate string `json:"reportDate"`
	Filename   string `json:"filename"`
	Data       []byte `json:"data"`
}

type ExtractWorkbookResponse struct {
	Draft    *model.ReportDraft `json:"draft"`
	Document *model.Document    `json:"document,omitempty"`
}

type GetDraftRequest struct {
	DraftID string `json:"draftId"`
}

type GetDraftResponse struct {
	Draft *model.ReportDraft `json:"draft"`
}

type PublishDraftRequest struct {
	DraftID    string `json:"draftId"`
	ClientName string `json:"clientName,omitempty"`
	Narrative  string `json:"narrative,omitempty"`
	InvoiceID  string `json:"invoiceId,omitempty"`
}

type PublishDraftResponse struct {
	Report *model.Report `json:"report"`
}

type UploadStatementRequest struct {
	OwnerID  string `json:"ownerId"`
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

type UploadStatementResponse struct {
	Document *model.Document         `json:"document"`
	Profits  *model.ProfitExtraction `json:"profits"`
}

type ReextractProfitsRequest struct {
	DocumentID string `json:"documentId"`
}

type ListProfitItemsRequest struct {
	DocumentID string `json:"documentId"`
}

// ProfitsResponse answers both ReextractProfits and ListProfitItems.
type ProfitsResponse struct {
	Profits *model.ProfitExtraction `json:"profits"`
}

type ListDocumentsRequest struct {
	OwnerID string `json:"ownerId,omitempty"`
}

type ListDocumentsResponse struct {
	Documents []*model.Document `json:"documents"`
}

type ExportStatementsRequest struct {
	ClientID string `json:"clientId,omitempty"`
}

type ExportStatementsResponse struct {
	Filename  string `json:"filename"`
	Data      []byte `json:"data"`
	FileCount int    `json:"fileCount"`
}

type SearchClientsRequest struct {
	Query    string `json:"query"`
	Page     int32  `json:"page"`
	PageSize int32  `json:"pageSize"`
}

type SearchClientsResponse struct {
	Results *search.Results `json:"results"`
}

type RefreshInvoiceStatusRequest struct {
	InvoiceID string `json:"invoiceId"`
}

type RefreshInvoiceStatusResponse struct {
	Invoice *model.Invoice `json:"invoice"`
}

type GetFactsRequest struct{}

type GetFactsResponse struct {
	Facts *facts.Facts `json:"facts"`
}

type ListMessagesRequest struct {
	Limit int32 `json:"limit"`
}

type ListMessagesResponse struct {
	Conversation *model.Conversation `json:"conversation"`
	Messages     []*model.Message    `json:"messages"`
}

// ChatMessage is one prior turn supplied by the client.
type ChatMessage struct {
	Role    model.MessageRole `json:"role"`
	Content string            `json:"content"`
}

type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int32         `json:"maxTokens,omitempty"`
}
