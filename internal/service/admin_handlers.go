package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/auth"
)

// SearchClients searches the client directory.
func (s *PortalService) SearchClients(ctx context.Context, req *connect.Request[api.SearchClientsRequest]) (*connect.Response[api.SearchClientsResponse], error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if s.directory == nil {
		return nil, unavailable("client search is not configured")
	}

	pageSize := auth.NormalizePageSize(req.Msg.PageSize)
	results, err := s.directory.SearchClients(ctx, req.Msg.Query, int(req.Msg.Page), int(pageSize))
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.SearchClientsResponse{Results: results}), nil
}

// RefreshInvoiceStatus pulls the Stripe state of an invoice.
func (s *PortalService) RefreshInvoiceStatus(ctx context.Context, req *connect.Request[api.RefreshInvoiceStatusRequest]) (*connect.Response[api.RefreshInvoiceStatusResponse], error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if req.Msg.InvoiceID == "" {
		return nil, invalidArgument("invoice ID is required")
	}
	if s.billing == nil {
		return nil, unavailable("billing is not configured")
	}

	inv, err := s.billing.Refresh(ctx, req.Msg.InvoiceID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.RefreshInvoiceStatusResponse{Invoice: inv}), nil
}
