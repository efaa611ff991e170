package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/billing"
	"github.com/castlemilk/wealthportal/backend/internal/facts"
	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/store"
)

func TestSearchClients(t *testing.T) {
	env := newTestEnv(t)
	for _, u := range []*model.UserProfile{
		{ID: "c1", Name: "Ana Ruiz", Email: "ana@example.com", Role: model.RoleClient},
		{ID: "c2", Name: "Luis Peña", Email: "luis@example.com", Role: model.RoleClient},
	} {
		require.NoError(t, env.store.UpsertUser(context.Background(), u))
	}

	resp, err := env.svc.SearchClients(testContextWithAdmin("admin-1"), connect.NewRequest(&api.SearchClientsRequest{Query: "pena"}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Results.Hits, 1)
	assert.Equal(t, "c2", resp.Msg.Results.Hits[0].ClientID)

	_, err = env.svc.SearchClients(testContextWithUser("c1"), connect.NewRequest(&api.SearchClientsRequest{Query: "ana"}))
	requireCode(t, err, connect.CodePermissionDenied)

	env.svc.directory = nil
	_, err = env.svc.SearchClients(testContextWithAdmin("admin-1"), connect.NewRequest(&api.SearchClientsRequest{}))
	requireCode(t, err, connect.CodeUnavailable)
}

type staticInvoiceSource struct {
	remote *billing.RemoteInvoice
}

func (s staticInvoiceSource) FetchInvoice(context.Context, string) (*billing.RemoteInvoice, error) {
	return s.remote, nil
}

func TestRefreshInvoiceStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContextWithAdmin("admin-1")
	require.NoError(t, env.store.CreateInvoice(context.Background(), &model.Invoice{
		ID: "inv-1", ClientID: "c1", Status: model.InvoiceStatusPending, StripeInvoiceID: "in_1",
	}))
	require.NoError(t, env.store.CreateInvoice(context.Background(), &model.Invoice{ID: "inv-2", ClientID: "c1"}))

	_, err := env.svc.RefreshInvoiceStatus(ctx, connect.NewRequest(&api.RefreshInvoiceStatusRequest{InvoiceID: "inv-1"}))
	requireCode(t, err, connect.CodeUnavailable)

	paidAt := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	env.svc.billing = billing.NewSyncer(env.store, staticInvoiceSource{remote: &billing.RemoteInvoice{ID: "in_1", Status: "paid", PaidAt: paidAt.Unix()}}, nil)

	resp, err := env.svc.RefreshInvoiceStatus(ctx, connect.NewRequest(&api.RefreshInvoiceStatusRequest{InvoiceID: "inv-1"}))
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, resp.Msg.Invoice.Status)

	_, err = env.svc.RefreshInvoiceStatus(ctx, connect.NewRequest(&api.RefreshInvoiceStatusRequest{InvoiceID: "inv-2"}))
	requireCode(t, err, connect.CodeFailedPrecondition)

	_, err = env.svc.RefreshInvoiceStatus(ctx, connect.NewRequest(&api.RefreshInvoiceStatusRequest{InvoiceID: "missing"}))
	requireCode(t, err, connect.CodeNotFound)

	_, err = env.svc.RefreshInvoiceStatus(ctx, connect.NewRequest(&api.RefreshInvoiceStatusRequest{}))
	requireCode(t, err, connect.CodeInvalidArgument)

	_, err = env.svc.RefreshInvoiceStatus(testContextWithUser("c1"), connect.NewRequest(&api.RefreshInvoiceStatusRequest{InvoiceID: "inv-1"}))
	requireCode(t, err, connect.CodePermissionDenied)
}

func TestGetFacts(t *testing.T) {
	env := newTestEnv(t)
	nw := 120000.0
	require.NoError(t, env.store.CreateReport(context.Background(), &model.Report{
		ID:               "r1",
		ClientID:         "client-1",
		ClientName:       "Ana",
		Date:             time.Now().AddDate(0, -1, 0),
		ExecutiveSummary: &model.ExecutiveSummary{TotalNetWorth: &nw},
	}))

	resp, err := env.svc.GetFacts(testContextWithUser("client-1"), connect.NewRequest(&api.GetFactsRequest{}))
	require.NoError(t, err)
	require.NotNil(t, resp.Msg.Facts.LatestReport)
	assert.InDelta(t, 120000, resp.Msg.Facts.LatestReport.TotalPatrimony, 1e-9)
	assert.Nil(t, resp.Msg.Facts.GlobalMetrics)

	other, err := env.svc.GetFacts(testContextWithUser("client-2"), connect.NewRequest(&api.GetFactsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, other.Msg.Facts.Reports)

	_, err = env.svc.GetFacts(context.Background(), connect.NewRequest(&api.GetFactsRequest{}))
	requireCode(t, err, connect.CodeUnauthenticated)
}

func TestGetFacts_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)
	mockStore.EXPECT().GetUser(gomock.Any(), "client-1").Return(nil, errors.New("firestore unavailable"))

	svc := NewPortalService(Deps{Store: mockStore, Facts: facts.NewBuilder(mockStore, nil)})
	_, err := svc.GetFacts(testContextWithUser("client-1"), connect.NewRequest(&api.GetFactsRequest{}))
	requireCode(t, err, connect.CodeInternal)
}
