package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/model"
)

func TestExtractWorkbook(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContextWithAdmin("admin-1")

	resp, err := env.svc.ExtractWorkbook(ctx, connect.NewRequest(&api.ExtractWorkbookRequest{
		ClientID:   "client-1",
		ReportDate: "2024-03-31",
		Filename:   "cartera.xlsx",
		Data:       workbookBytes(t),
	}))
	require.NoError(t, err)

	draft := resp.Msg.Draft
	require.NotNil(t, draft)
	assert.InDelta(t, 85000, draft.Snapshot.NetWorth, 1e-9)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), draft.ReportDate)
	require.NotNil(t, resp.Msg.Document)
	assert.Equal(t, resp.Msg.Document.ID, draft.SourceDocumentID)
	assert.Equal(t, model.DocumentKindWorkbook, resp.Msg.Document.Kind)
	assert.Equal(t, "client-1", resp.Msg.Document.OwnerID)

	archived, err := env.archive.Get(context.Background(), resp.Msg.Document.StoragePath)
	require.NoError(t, err)
	assert.NotEmpty(t, archived)

	got, err := env.svc.GetDraft(ctx, connect.NewRequest(&api.GetDraftRequest{DraftID: draft.ID}))
	require.NoError(t, err)
	assert.Equal(t, draft.SourceDocumentID, got.Msg.Draft.SourceDocumentID)
}

func TestExtractWorkbook_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		ctx  context.Context
		req  *api.ExtractWorkbookRequest
		code connect.Code
	}{
		{"client caller", testContextWithUser("client-1"), &api.ExtractWorkbookRequest{ClientID: "client-1", Data: []byte("x")}, connect.CodePermissionDenied},
		{"unauthenticated", context.Background(), &api.ExtractWorkbookRequest{}, connect.CodeUnauthenticated},
		{"missing client", testContextWithAdmin("admin-1"), &api.ExtractWorkbookRequest{Data: []byte("x")}, connect.CodeInvalidArgument},
		{"missing data", testContextWithAdmin("admin-1"), &api.ExtractWorkbookRequest{ClientID: "c"}, connect.CodeInvalidArgument},
		{"bad date", testContextWithAdmin("admin-1"), &api.ExtractWorkbookRequest{ClientID: "c", ReportDate: "31/03/2024", Data: []byte("x")}, connect.CodeInvalidArgument},
		{"unreadable workbook", testContextWithAdmin("admin-1"), &api.ExtractWorkbookRequest{ClientID: "c", Filename: "x.xlsx", Data: []byte("not a workbook")}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.ExtractWorkbook(tt.ctx, connect.NewRequest(tt.req))
			requireCode(t, err, tt.code)
		})
	}
}

func TestPublishDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContextWithAdmin("admin-1")
	require.NoError(t, env.store.UpsertUser(context.Background(), &model.UserProfile{ID: "client-1", Name: "Ana Ruiz", Role: model.RoleClient}))
	require.NoError(t, env.store.CreateInvoice(context.Background(), &model.Invoice{ID: "inv-1", ClientID: "client-1", Number: "F-1"}))
	require.NoError(t, env.store.CreateInvoice(context.Background(), &model.Invoice{ID: "inv-2", ClientID: "client-2", Number: "F-2"}))

	ytd := 3.5
	draft := &model.ReportDraft{
		ID:         "draft-1",
		ClientID:   "client-1",
		ReportDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		History: []model.HistoryPoint{
			{ClientID: "client-1", Date: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), NetValue: 80000},
			{ClientID: "client-1", Date: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), NetValue: 85000, YTDReturnPct: &ytd},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, env.extraction.Drafts().Put(draft))

	t.Run("invoice of another client", func(t *testing.T) {
		_, err := env.svc.PublishDraft(ctx, connect.NewRequest(&api.PublishDraftRequest{DraftID: "draft-1", InvoiceID: "inv-2"}))
		requireCode(t, err, connect.CodeInvalidArgument)
		_, err = env.extraction.Drafts().Get("draft-1")
		assert.NoError(t, err, "draft must survive a rejected publish")
	})

	t.Run("published", func(t *testing.T) {
		resp, err := env.svc.PublishDraft(ctx, connect.NewRequest(&api.PublishDraftRequest{
			DraftID:   "draft-1",
			Narrative: "<b>Buen trimestre</b> para la cartera.",
			InvoiceID: "inv-1",
		}))
		require.NoError(t, err)

		report := resp.Msg.Report
		assert.Equal(t, model.ReportStatusPublished, report.Status)
		assert.Equal(t, "Ana Ruiz", report.ClientName)
		assert.Equal(t, "Buen trimestre para la cartera.", report.Narrative)
		assert.Equal(t, "admin-1", report.PublishedByUserID)

		stored, err := env.store.ListReportsByClient(context.Background(), "client-1")
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, report.ID, stored[0].ID)

		history, err := env.store.ListHistoryByClient(context.Background(), "client-1")
		require.NoError(t, err)
		assert.Len(t, history, 2)

		_, err = env.extraction.Drafts().Get("draft-1")
		assert.Error(t, err)
	})

	t.Run("unknown draft", func(t *testing.T) {
		_, err := env.svc.PublishDraft(ctx, connect.NewRequest(&api.PublishDraftRequest{DraftID: "draft-1"}))
		requireCode(t, err, connect.CodeNotFound)
	})
}
