// Package model holds the domain types shared by the portal backend.
package model

import "time"

// Role is the access role of a portal user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// IsAdmin reports whether r grants firm-wide access.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// UserProfile is the profile of a portal user (client or administrator).
type UserProfile struct {
	ID                string    `json:"id" firestore:"id"`
	Name              string    `json:"name" firestore:"name"`
	Email             string    `json:"email" firestore:"email"`
	Role              Role      `json:"role" firestore:"role"`
	PreferredCurrency string    `json:"preferredCurrency,omitempty" firestore:"preferredCurrency"`
	ManagementFeePct  float64   `json:"managementFeePct,omitempty" firestore:"managementFeePct"`
	SuccessFeePct     float64   `json:"successFeePct,omitempty" firestore:"successFeePct"`
	RiskProfile       string    `json:"riskProfile,omitempty" firestore:"riskProfile"`
	CreatedAt         time.Time `json:"createdAt" firestore:"createdAt"`
}

// BankPosition is one bank's line in the executive summary.
type BankPosition struct {
	Custody    float64 `json:"custody" firestore:"custody"`
	OffCustody float64 `json:"offCustody" firestore:"offCustody"`
	Debt       float64 `json:"debt" firestore:"debt"`
	NetWorth   float64 `json:"netWorth" firestore:"netWorth"`
}

// Totals are the four headline figures of a statement workbook.
type Totals = BankPosition

// ExecutiveSummary is the reviewed KPI block of a report. Nil pointers mean
// the figure was not provided and readers must fall back to the snapshot.
type ExecutiveSummary struct {
	TotalNetWorth *float64                `json:"totalNetWorth,omitempty" firestore:"totalNetWorth"`
	TotalDebt     *float64                `json:"totalDebt,omitempty" firestore:"totalDebt"`
	DebtToWorth   *float64                `json:"debtToWorth,omitempty" firestore:"debtToWorth"`
	YTDReturn     string                  `json:"ytdReturn,omitempty" firestore:"ytdReturn"`
	Banks         map[string]BankPosition `json:"banks,omitempty" firestore:"banks"`
}

// Snapshot is the raw position captured at upload time.
type Snapshot struct {
	Custody    float64 `json:"custody" firestore:"custody"`
	OffCustody float64 `json:"offCustody" firestore:"offCustody"`
	Debt       float64 `json:"debt" firestore:"debt"`
	NetWorth   float64 `json:"netWorth" firestore:"netWorth"`
}

// HistoryPoint is one month of a client's net-worth series.
// YTDReturnPct is nil when the source cell was not numeric.
type HistoryPoint struct {
	ClientID         string    `json:"clientId" firestore:"clientId"`
	Date             time.Time `json:"date" firestore:"date"`
	NetValue         float64   `json:"netValue" firestore:"netValue"`
	MonthlyReturnPct float64   `json:"monthlyReturnPct" firestore:"monthlyReturnPct"`
	YTDReturnPct     *float64  `json:"ytdReturnPct,omitempty" firestore:"ytdReturnPct"`
}

// AllocationRow is one line of an asset-allocation table.
type AllocationRow struct {
	Category   string  `json:"category" firestore:"category"`
	Value      float64 `json:"value" firestore:"value"`
	Percentage float64 `json:"percentage" firestore:"percentage"`
}

// ReportStatus tracks the publish lifecycle of a report.
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusPublished ReportStatus = "published"
)

// Report is a published client report.
type Report struct {
	ID                string            `json:"id" firestore:"id"`
	ClientID          string            `json:"clientId" firestore:"clientId"`
	ClientName        string            `json:"clientName,omitempty" firestore:"clientName"`
	Date              time.Time         `json:"date" firestore:"date"`
	Status            ReportStatus      `json:"status" firestore:"status"`
	ExecutiveSummary  *ExecutiveSummary `json:"executiveSummary,omitempty" firestore:"executiveSummary"`
	Snapshot          *Snapshot         `json:"snapshot,omitempty" firestore:"snapshot"`
	History           []HistoryPoint    `json:"history,omitempty" firestore:"history"`
	ParentAllocation  []AllocationRow   `json:"parentAllocation,omitempty" firestore:"parentAllocation"`
	ChildAllocation   []AllocationRow   `json:"childAllocation,omitempty" firestore:"childAllocation"`
	Narrative         string            `json:"narrative,omitempty" firestore:"narrative"`
	InvoiceID         string            `json:"invoiceId,omitempty" firestore:"invoiceId"`
	SourceDocumentID  string            `json:"sourceDocumentId,omitempty" firestore:"sourceDocumentId"`
	CreatedAt         time.Time         `json:"createdAt" firestore:"createdAt"`
	PublishedByUserID string            `json:"publishedBy,omitempty" firestore:"publishedBy"`
}

// ReportDraft is the output of workbook extraction awaiting human review.
type ReportDraft struct {
	ID               string           `json:"id"`
	ClientID         string           `json:"clientId"`
	ReportDate       time.Time        `json:"reportDate"`
	ExecutiveSummary ExecutiveSummary `json:"executiveSummary"`
	Snapshot         Snapshot         `json:"snapshot"`
	History          []HistoryPoint   `json:"history"`
	ParentAllocation []AllocationRow  `json:"parentAllocation"`
	ChildAllocation  []AllocationRow  `json:"childAllocation"`
	SourceDocumentID string           `json:"sourceDocumentId,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// InvoiceStatus mirrors the billing lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

// Invoice is a fee invoice issued to a client.
type Invoice struct {
	ID              string        `json:"id" firestore:"id"`
	ClientID        string        `json:"clientId" firestore:"clientId"`
	Number          string        `json:"number" firestore:"number"`
	Concept         string        `json:"concept,omitempty" firestore:"concept"`
	Amount          float64       `json:"amount" firestore:"amount"`
	Currency        string        `json:"currency" firestore:"currency"`
	Status          InvoiceStatus `json:"status" firestore:"status"`
	IssuedAt        time.Time     `json:"issuedAt" firestore:"issuedAt"`
	PaidAt          *time.Time    `json:"paidAt,omitempty" firestore:"paidAt"`
	StripeInvoiceID string        `json:"stripeInvoiceId,omitempty" firestore:"stripeInvoiceId"`
	HostedURL       string        `json:"hostedUrl,omitempty" firestore:"hostedUrl"`
}

// DocumentKind identifies the type of an uploaded statement.
type DocumentKind string

const (
	DocumentKindPDF      DocumentKind = "pdf"
	DocumentKindWorkbook DocumentKind = "workbook"
)

// Document is an uploaded statement file.
type Document struct {
	ID          string       `json:"id" firestore:"id"`
	OwnerID     string       `json:"ownerId" firestore:"ownerId"`
	Filename    string       `json:"filename" firestore:"filename"`
	Kind        DocumentKind `json:"kind" firestore:"kind"`
	StoragePath string       `json:"storagePath" firestore:"storagePath"`
	SizeBytes   int64        `json:"sizeBytes" firestore:"sizeBytes"`
	UploadedBy  string       `json:"uploadedBy" firestore:"uploadedBy"`
	UploadedAt  time.Time    `json:"uploadedAt" firestore:"uploadedAt"`
}

// ProfitItem is one dividend/profit event detected in a statement.
// Source is empty when the rule could not attribute the item to a bank and
// Confidence is zero when unscored.
type ProfitItem struct {
	Label      string  `json:"label" firestore:"label"`
	Amount     float64 `json:"amount" firestore:"amount"`
	Currency   string  `json:"currency" firestore:"currency"`
	Source     string  `json:"source,omitempty" firestore:"source"`
	Confidence float64 `json:"confidence,omitempty" firestore:"confidence"`
}

// ProfitExtraction is the persisted profit payload of one document.
type ProfitExtraction struct {
	DocumentID  string       `json:"documentId" firestore:"documentId"`
	OwnerID     string       `json:"ownerId" firestore:"ownerId"`
	Items       []ProfitItem `json:"items" firestore:"items"`
	ExtractedAt time.Time    `json:"extractedAt" firestore:"extractedAt"`
}

// MessageRole tags a chat message.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Conversation groups a user's chat messages.
type Conversation struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"userId" firestore:"userId"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Message is one persisted chat turn.
type Message struct {
	ID             string      `json:"id" firestore:"id"`
	ConversationID string      `json:"conversationId" firestore:"conversationId"`
	UserID         string      `json:"userId" firestore:"userId"`
	Role           MessageRole `json:"role" firestore:"role"`
	Content        string      `json:"content" firestore:"content"`
	CreatedAt      time.Time   `json:"createdAt" firestore:"createdAt"`
}
