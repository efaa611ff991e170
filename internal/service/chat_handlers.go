package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/castlemilk/wealthportal/backend/internal/api"
	"github.com/castlemilk/wealthportal/backend/internal/auth"
	"github.com/castlemilk/wealthportal/backend/internal/chat"
	"github.com/castlemilk/wealthportal/backend/internal/facts"
	"github.com/castlemilk/wealthportal/backend/internal/llm"
)

// GetFacts returns the caller's portfolio facts for dashboards.
func (s *PortalService) GetFacts(ctx context.Context, _ *connect.Request[api.GetFactsRequest]) (*connect.Response[api.GetFactsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.facts.Build(ctx, facts.Subject{UserID: claims.UID, Role: claims.Role})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetFactsResponse{Facts: f}), nil
}

// ListMessages returns the latest messages of the caller's conversation.
func (s *PortalService) ListMessages(ctx context.Context, req *connect.Request[api.ListMessagesRequest]) (*connect.Response[api.ListMessagesResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	conv, err := s.store.GetOrCreateConversation(ctx, claims.UID)
	if err != nil {
		return nil, toConnectError(auth.WrapStoreError("get conversation", err))
	}
	msgs, err := s.store.ListMessages(ctx, conv.ID, int(auth.NormalizePageSize(req.Msg.Limit)))
	if err != nil {
		return nil, toConnectError(auth.WrapStoreError("list messages", err))
	}
	return connect.NewResponse(&api.ListMessagesResponse{Conversation: conv, Messages: msgs}), nil
}

// Chat streams one assistant turn. Invalid input and a turn already in
// flight fail the call before any event is sent; model failures arrive as a
// final error event.
func (s *PortalService) Chat(ctx context.Context, req *connect.Request[api.ChatRequest], stream *connect.ServerStream[chat.Event]) error {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return err
	}

	turn := chat.Request{
		UserID:      claims.UID,
		Role:        claims.Role,
		Messages:    make([]llm.Message, 0, len(req.Msg.Messages)),
		Temperature: req.Msg.Temperature,
		MaxTokens:   req.Msg.MaxTokens,
	}
	for _, m := range req.Msg.Messages {
		turn.Messages = append(turn.Messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	err = s.chat.Run(ctx, turn, func(e chat.Event) error {
		return stream.Send(&e)
	})
	return toConnectError(err)
}
